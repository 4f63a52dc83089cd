package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/akademika/obe-api/internal/dto"
	"github.com/akademika/obe-api/internal/models"
	"github.com/akademika/obe-api/pkg/export"
	"github.com/akademika/obe-api/pkg/storage"
)

type programReportBuilder interface {
	Build(ctx context.Context, termIDs []string) (*dto.ProgramAttainmentReport, bool, error)
}

type studentReportBuilder interface {
	Build(ctx context.Context, req StudentReportRequest) (*dto.StudentAttainmentReport, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders attainment reports into downloadable files.
type ExportService struct {
	program  programReportBuilder
	students studentReportBuilder
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(program programReportBuilder, students studentReportBuilder, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		program:  program,
		students: students,
		storage:  files,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	var (
		dataset export.Dataset
		title   string
		err     error
	)
	switch job.Type {
	case models.ReportTypeProgramAttainment:
		dataset, title, err = s.buildProgramDataset(ctx, job.Params.TermIDs)
	case models.ReportTypeStudentAttainment:
		dataset, title, err = s.buildStudentDataset(ctx, job.Params)
	default:
		err = fmt.Errorf("unsupported report type %s", job.Type)
	}
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath := fmt.Sprintf("%s/%s.%s", job.ID, job.Type, job.Params.Format)
	if _, err := s.storage.Save(relPath, payload); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/attainment/download/%s", s.cfg.APIPrefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}
	s.logger.Sugar().Infow("export generated", "job_id", job.ID, "type", job.Type, "format", job.Params.Format)
	return result, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle for a stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes expired export files.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildProgramDataset(ctx context.Context, termIDs []string) (export.Dataset, string, error) {
	report, _, err := s.program.Build(ctx, termIDs)
	if err != nil {
		return export.Dataset{}, "", err
	}

	codes := make([]string, 0, len(report.Summary))
	for _, row := range report.Summary {
		codes = append(codes, row.Subject)
	}
	sort.Strings(codes)

	headers := append([]string{"Kelas", "Mata Kuliah", "Term"}, codes...)
	rows := make([][]string, 0, len(report.PerClass)+1)
	for _, class := range report.PerClass {
		row := []string{class.ClassName, class.CourseName, class.TermID}
		for _, code := range codes {
			if score, ok := class.Scores[code]; ok {
				row = append(row, formatScore(score))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}

	summaryRow := []string{"Rata-rata Prodi", "", ""}
	for _, code := range codes {
		value := ""
		for _, row := range report.Summary {
			if row.Subject == code {
				value = formatScore(row.Prodi)
				break
			}
		}
		summaryRow = append(summaryRow, value)
	}
	rows = append(rows, summaryRow)

	return export.Dataset{Headers: headers, Rows: rows}, "Capaian CPL Program Studi", nil
}

func (s *ExportService) buildStudentDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	if params.StudentID == nil || *params.StudentID == "" {
		return export.Dataset{}, "", fmt.Errorf("studentId required for student export")
	}
	report, err := s.students.Build(ctx, StudentReportRequest{StudentID: *params.StudentID, TermIDs: params.TermIDs})
	if err != nil {
		return export.Dataset{}, "", err
	}

	rows := make([][]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		rows = append(rows, []string{row.Code, row.Description, formatScore(row.Score)})
	}
	title := fmt.Sprintf("Capaian CPL Mahasiswa %s", *params.StudentID)
	return export.Dataset{Headers: []string{"Kode CPL", "Deskripsi", "Skor"}, Rows: rows}, title, nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
