package service

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/akademika/obe-api/internal/dto"
	"github.com/akademika/obe-api/internal/models"
	appErrors "github.com/akademika/obe-api/pkg/errors"
)

type studentSnapshotReader interface {
	StudentClassScores(ctx context.Context, studentID string, termIDs []string) ([]models.StudentClassScores, error)
}

type cplCatalogReader interface {
	ListCPL(ctx context.Context) ([]models.CPLDetail, error)
}

type reportObserver interface {
	ObserveReportBuild(kind string, duration time.Duration)
	RecordCacheOperation(hit bool)
}

// StudentReportRequest scopes one per-student attainment report.
type StudentReportRequest struct {
	StudentID string   `json:"studentId" validate:"required"`
	TermIDs   []string `json:"termIds"`
}

// StudentReportService builds per-student CPL attainment reports. It is a
// read-then-reduce pipeline: one snapshot fetch, one in-memory reduction,
// no writes.
type StudentReportService struct {
	snapshots studentSnapshotReader
	catalog   cplCatalogReader
	metrics   reportObserver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentReportService constructs StudentReportService.
func NewStudentReportService(snapshots studentSnapshotReader, catalog cplCatalogReader, metrics reportObserver, validate *validator.Validate, logger *zap.Logger) *StudentReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentReportService{
		snapshots: snapshots,
		catalog:   catalog,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Build produces one row per catalog CPL for the student across the given
// terms. An empty term set yields an empty report; a student with no
// relevant enrollments gets all-zero rows so unassessed outcomes are
// visible rather than missing.
func (s *StudentReportService) Build(ctx context.Context, req StudentReportRequest) (*dto.StudentAttainmentReport, error) {
	started := time.Now()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student report request")
	}

	report := &dto.StudentAttainmentReport{
		StudentID: req.StudentID,
		TermIDs:   req.TermIDs,
		Rows:      []dto.StudentAttainmentRow{},
	}
	if len(req.TermIDs) == 0 {
		return report, nil
	}

	snapshots, err := s.snapshots.StudentClassScores(ctx, req.StudentID, req.TermIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student snapshot")
	}
	catalog, err := s.catalog.ListCPL(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cpl catalog")
	}

	acc := make(map[string]*cplAccumulator)
	for _, snap := range snapshots {
		if snap.CourseID == "" {
			continue
		}
		scores := snap.Scores
		accumulateClassAttainment(snap.ClassSnapshot, func(componentID string) float64 {
			return scores[componentID]
		}, acc)
	}

	rows := make([]dto.StudentAttainmentRow, 0, len(catalog))
	for _, cpl := range catalog {
		row := dto.StudentAttainmentRow{Code: cpl.Code, Description: cpl.Description}
		if bucket, ok := acc[cpl.Code]; ok {
			row.Score = Round2(bucket.final())
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	report.Rows = rows

	if s.metrics != nil {
		s.metrics.ObserveReportBuild("student_attainment", time.Since(started))
	}
	s.logger.Debug("student attainment report built",
		zap.String("student_id", req.StudentID),
		zap.Int("terms", len(req.TermIDs)),
		zap.Int("classes", len(snapshots)),
	)
	return report, nil
}
