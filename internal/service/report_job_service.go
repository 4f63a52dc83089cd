package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/akademika/obe-api/internal/dto"
	"github.com/akademika/obe-api/internal/models"
	"github.com/akademika/obe-api/internal/repository"
	appErrors "github.com/akademika/obe-api/pkg/errors"
	"github.com/akademika/obe-api/pkg/jobs"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

type exportQueue interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
	ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
	Delete(relPath string) error
	Cleanup(ttl time.Duration) ([]string, error)
}

// ReportJobConfig tunes job lifecycle behaviour.
type ReportJobConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportJobService orchestrates asynchronous report exports.
type ReportJobService struct {
	store     reportJobStore
	queue     exportQueue
	generator exportGenerator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportJobConfig
}

// NewReportJobService constructs a ReportJobService.
func NewReportJobService(store reportJobStore, queue exportQueue, generator exportGenerator, cfg ReportJobConfig, validate *validator.Validate, logger *zap.Logger) *ReportJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	return &ReportJobService{
		store:     store,
		queue:     queue,
		generator: generator,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob validates the request, persists the job and enqueues it.
func (s *ReportJobService) CreateJob(ctx context.Context, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	job := &models.ReportJob{
		Type: req.Type,
		Params: models.ReportJobParams{
			TermIDs:   req.TermIDs,
			StudentID: req.StudentID,
			Format:    req.Format,
		},
		Status:    models.ReportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		s.markFailed(ctx, job.ID, "queue unavailable")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	s.logger.Sugar().Infow("export job queued", "job_id", job.ID, "type", job.Type, "format", job.Params.Format)
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus returns job progress metadata.
func (s *ReportJobService) GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return &dto.ExportStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
		Error:     job.ErrorMessage,
	}, nil
}

// DownloadTarget resolves a signed token to a stored file path.
type DownloadTarget struct {
	JobID    string
	RelPath  string
	Filename string
}

// ResolveDownload verifies the token and confirms the job finished.
func (s *ReportJobService) ResolveDownload(ctx context.Context, token string) (*DownloadTarget, error) {
	jobID, relPath, _, err := s.generator.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}

	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrValidation, "export job is not finished")
	}

	filename := string(job.Type) + "." + string(job.Params.Format)
	return &DownloadTarget{JobID: job.ID, RelPath: relPath, Filename: filename}, nil
}

// RecoverPendingJobs requeues jobs left QUEUED by a previous process.
func (s *ReportJobService) RecoverPendingJobs(ctx context.Context) error {
	pending, err := s.store.ListQueued(ctx, 50)
	if err != nil {
		return err
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
			s.logger.Sugar().Errorw("failed to requeue pending job", "job_id", job.ID, "error", err)
			continue
		}
		s.logger.Sugar().Infow("requeued pending export job", "job_id", job.ID)
	}
	return nil
}

// StartCleanup launches a background loop that expires old export files.
func (s *ReportJobService) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ReportJobService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.ResultTTL)
	finished, err := s.store.ListFinishedBefore(ctx, cutoff, 50)
	if err != nil {
		s.logger.Sugar().Errorw("cleanup: failed to list finished jobs", "error", err)
		return
	}
	for _, job := range finished {
		relPath := job.ID + "/" + string(job.Type) + "." + string(job.Params.Format)
		if err := s.generator.Delete(relPath); err != nil {
			s.logger.Sugar().Warnw("cleanup: failed to delete export file", "job_id", job.ID, "error", err)
		}
		s.markResultExpired(ctx, job.ID)
	}

	removed, err := s.generator.Cleanup(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Sugar().Errorw("cleanup: storage sweep failed", "error", err)
		return
	}
	if len(removed) > 0 {
		s.logger.Sugar().Infow("cleanup: removed expired export files", "count", len(removed))
	}
}

func (s *ReportJobService) markResultExpired(ctx context.Context, id string) {
	empty := ""
	if err := s.store.Update(ctx, id, repository.UpdateReportJobParams{ResultURL: &empty}); err != nil {
		s.logger.Sugar().Warnw("cleanup: failed to clear result url", "job_id", id, "error", err)
	}
}

func (s *ReportJobService) markFailed(ctx context.Context, id, message string) {
	status := models.ReportStatusFailed
	now := time.Now().UTC()
	if err := s.store.Update(ctx, id, repository.UpdateReportJobParams{
		Status:       &status,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Sugar().Errorw("failed to mark job failed", "job_id", id, "error", err)
	}
}

func (s *ReportJobService) validateRequest(req dto.ExportRequest) error {
	if len(req.TermIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "termIds must not be empty")
	}
	switch req.Type {
	case models.ReportTypeProgramAttainment:
	case models.ReportTypeStudentAttainment:
		if req.StudentID == nil || *req.StudentID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "studentId is required for student attainment exports")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}
	switch req.Format {
	case models.ReportFormatCSV, models.ReportFormatPDF:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	return nil
}

// ReportWorker bridges the in-memory queue to the export generator.
type ReportWorker struct {
	store     reportJobStore
	generator exportGenerator
	logger    *zap.Logger
}

// NewReportWorker constructs a worker handler.
func NewReportWorker(store reportJobStore, generator exportGenerator, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportWorker{store: store, generator: generator, logger: logger}
}

// Handle processes a single export job end to end.
func (w *ReportWorker) Handle(ctx context.Context, queued jobs.Job) error {
	job, err := w.store.GetByID(ctx, queued.ID)
	if err != nil {
		return err
	}
	if job.Status == models.ReportStatusFinished {
		return nil
	}

	processing := models.ReportStatusProcessing
	progress := 10
	if err := w.store.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	result, err := w.generator.Generate(ctx, job)
	if err != nil {
		w.fail(ctx, job.ID, err)
		return err
	}

	finished := models.ReportStatusFinished
	done := 100
	now := time.Now().UTC()
	if err := w.store.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:     &finished,
		Progress:   &done,
		ResultURL:  &result.URL,
		FinishedAt: &now,
	}); err != nil {
		return err
	}

	w.logger.Sugar().Infow("export job finished", "job_id", job.ID, "path", result.RelativePath)
	return nil
}

func (w *ReportWorker) fail(ctx context.Context, id string, cause error) {
	status := models.ReportStatusFailed
	message := cause.Error()
	now := time.Now().UTC()
	if err := w.store.Update(ctx, id, repository.UpdateReportJobParams{
		Status:       &status,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Errorw("failed to mark job failed", "job_id", id, "error", err)
	}
}
