package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/akademika/obe-api/internal/dto"
	"github.com/akademika/obe-api/internal/service"
	appErrors "github.com/akademika/obe-api/pkg/errors"
	"github.com/akademika/obe-api/pkg/response"
)

type studentReportBuilder interface {
	Build(ctx context.Context, req service.StudentReportRequest) (*dto.StudentAttainmentReport, error)
}

type programReportBuilder interface {
	Build(ctx context.Context, termIDs []string) (*dto.ProgramAttainmentReport, bool, error)
}

type exportJobService interface {
	CreateJob(ctx context.Context, req dto.ExportRequest) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.DownloadTarget, error)
}

type exportFileOpener interface {
	Open(relPath string) (*os.File, error)
}

// ReportHandler exposes attainment reporting endpoints.
type ReportHandler struct {
	students studentReportBuilder
	program  programReportBuilder
	jobs     exportJobService
	exports  exportFileOpener
}

// NewReportHandler constructs handler.
func NewReportHandler(students studentReportBuilder, program programReportBuilder, jobs exportJobService, exports exportFileOpener) *ReportHandler {
	return &ReportHandler{students: students, program: program, jobs: jobs, exports: exports}
}

// StudentAttainment godoc
// @Summary Per-student CPL attainment
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param termIds query string true "Comma separated term IDs"
// @Success 200 {object} response.Envelope
// @Router /reports/attainment/students/{studentId} [get]
func (h *ReportHandler) StudentAttainment(c *gin.Context) {
	termIDs := splitTermIDs(c.Query("termIds"))
	report, err := h.students.Build(c.Request.Context(), service.StudentReportRequest{
		StudentID: c.Param("studentId"),
		TermIDs:   termIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ProgramAttainment godoc
// @Summary Program-wide CPL attainment
// @Tags Reports
// @Produce json
// @Param termIds query string true "Comma separated term IDs"
// @Success 200 {object} response.Envelope
// @Router /reports/attainment/program [get]
func (h *ReportHandler) ProgramAttainment(c *gin.Context) {
	termIDs := splitTermIDs(c.Query("termIds"))
	report, cached, err := h.program.Build(c.Request.Context(), termIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, map[string]interface{}{"cached": cached})
}

// CreateExport godoc
// @Summary Queue an attainment export
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export payload"
// @Success 202 {object} response.Envelope
// @Router /reports/attainment/export [post]
func (h *ReportHandler) CreateExport(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// ExportStatus godoc
// @Summary Export job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /reports/attainment/export/{id} [get]
func (h *ReportHandler) ExportStatus(c *gin.Context) {
	status, err := h.jobs.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /reports/attainment/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	target, err := h.jobs.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.exports.Open(target.RelPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available"))
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", `attachment; filename="`+target.Filename+`"`)
	c.Header("Content-Type", contentTypeFor(target.Filename))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}

func splitTermIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".csv"):
		return "text/csv"
	case strings.HasSuffix(filename, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
