package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/akademika/obe-api/internal/dto"
	"github.com/akademika/obe-api/internal/models"
	"github.com/akademika/obe-api/internal/service"
	appErrors "github.com/akademika/obe-api/pkg/errors"
)

type studentBuilderMock struct {
	report *dto.StudentAttainmentReport
	err    error
	gotReq service.StudentReportRequest
}

func (m *studentBuilderMock) Build(_ context.Context, req service.StudentReportRequest) (*dto.StudentAttainmentReport, error) {
	m.gotReq = req
	return m.report, m.err
}

type programBuilderMock struct {
	report *dto.ProgramAttainmentReport
	cached bool
	err    error
}

func (m *programBuilderMock) Build(_ context.Context, _ []string) (*dto.ProgramAttainmentReport, bool, error) {
	return m.report, m.cached, m.err
}

type exportJobServiceMock struct {
	createResp  *dto.ExportJobResponse
	createErr   error
	statusResp  *dto.ExportStatusResponse
	statusErr   error
	download    *service.DownloadTarget
	downloadErr error
}

func (m *exportJobServiceMock) CreateJob(_ context.Context, _ dto.ExportRequest) (*dto.ExportJobResponse, error) {
	return m.createResp, m.createErr
}

func (m *exportJobServiceMock) GetStatus(_ context.Context, _ string) (*dto.ExportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *exportJobServiceMock) ResolveDownload(_ context.Context, _ string) (*service.DownloadTarget, error) {
	return m.download, m.downloadErr
}

type exportOpenerMock struct {
	file *os.File
	err  error
}

func (m *exportOpenerMock) Open(_ string) (*os.File, error) {
	return m.file, m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestReportHandlerStudentAttainment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	students := &studentBuilderMock{report: &dto.StudentAttainmentReport{
		StudentID: "std-1",
		TermIDs:   []string{"term-1", "term-2"},
		Rows:      []dto.StudentAttainmentRow{{Code: "CPL1", Score: 85.5}},
	}}
	handler := NewReportHandler(students, nil, nil, nil)

	c, w := newGinContext(http.MethodGet, "/reports/attainment/students/std-1?termIds=term-1,%20term-2", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "std-1"}}

	handler.StudentAttainment(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "std-1", students.gotReq.StudentID)
	require.Equal(t, []string{"term-1", "term-2"}, students.gotReq.TermIDs)
	require.Contains(t, w.Body.String(), "CPL1")
}

func TestReportHandlerStudentAttainmentValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	students := &studentBuilderMock{err: appErrors.Clone(appErrors.ErrValidation, "invalid student report request")}
	handler := NewReportHandler(students, nil, nil, nil)

	c, w := newGinContext(http.MethodGet, "/reports/attainment/students/", nil)
	handler.StudentAttainment(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerProgramAttainment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	program := &programBuilderMock{
		report: &dto.ProgramAttainmentReport{
			TermIDs: []string{"term-1"},
			Summary: []dto.ProgramCPLSummary{{Subject: "CPL1", Target: 75, Prodi: 80}},
		},
		cached: true,
	}
	handler := NewReportHandler(nil, program, nil, nil)

	c, w := newGinContext(http.MethodGet, "/reports/attainment/program?termIds=term-1", nil)
	handler.ProgramAttainment(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"cached":true`)
}

func TestReportHandlerCreateExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jobs := &exportJobServiceMock{
		createResp: &dto.ExportJobResponse{ID: "job-1", Status: models.ReportStatusQueued},
	}
	handler := NewReportHandler(nil, nil, jobs, nil)

	payload, _ := json.Marshal(dto.ExportRequest{
		Type:    models.ReportTypeProgramAttainment,
		TermIDs: []string{"term-1"},
		Format:  models.ReportFormatCSV,
	})
	c, w := newGinContext(http.MethodPost, "/reports/attainment/export", payload)
	handler.CreateExport(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Contains(t, w.Body.String(), "job-1")
}

func TestReportHandlerCreateExportBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(nil, nil, &exportJobServiceMock{}, nil)

	c, w := newGinContext(http.MethodPost, "/reports/attainment/export", []byte("{not json"))
	handler.CreateExport(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerExportStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jobs := &exportJobServiceMock{
		statusResp: &dto.ExportStatusResponse{ID: "job-1", Status: models.ReportStatusFinished, Progress: 100},
	}
	handler := NewReportHandler(nil, nil, jobs, nil)

	c, w := newGinContext(http.MethodGet, "/reports/attainment/export/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	handler.ExportStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "FINISHED")
}

func TestReportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	file, err := os.CreateTemp(t.TempDir(), "export*.csv")
	require.NoError(t, err)
	_, _ = file.WriteString("Kode CPL,Deskripsi,Skor\n")
	_, _ = file.Seek(0, 0)

	jobs := &exportJobServiceMock{
		download: &service.DownloadTarget{JobID: "job-1", RelPath: "job-1/student_attainment.csv", Filename: "student_attainment.csv"},
	}
	handler := NewReportHandler(nil, nil, jobs, &exportOpenerMock{file: file})

	c, w := newGinContext(http.MethodGet, "/reports/attainment/download/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "student_attainment.csv")
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), "Kode CPL")
}

func TestReportHandlerDownloadInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jobs := &exportJobServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")}
	handler := NewReportHandler(nil, nil, jobs, nil)

	c, w := newGinContext(http.MethodGet, "/reports/attainment/download/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}
	handler.Download(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSplitTermIDs(t *testing.T) {
	require.Nil(t, splitTermIDs(""))
	require.Equal(t, []string{"a", "b"}, splitTermIDs("a, b,"))
}
