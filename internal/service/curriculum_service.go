package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/akademika/obe-api/internal/models"
	appErrors "github.com/akademika/obe-api/pkg/errors"
)

type curriculumReader interface {
	ListCPL(ctx context.Context) ([]models.CPLDetail, error)
	ListIKByCPL(ctx context.Context, cplID string) ([]models.IK, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
}

// CurriculumService exposes the outcome taxonomy catalog.
type CurriculumService struct {
	catalog curriculumReader
	logger  *zap.Logger
}

// NewCurriculumService constructs a CurriculumService.
func NewCurriculumService(catalog curriculumReader, logger *zap.Logger) *CurriculumService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurriculumService{catalog: catalog, logger: logger}
}

// ListCPL returns every program outcome with its indicator count.
func (s *CurriculumService) ListCPL(ctx context.Context) ([]models.CPLDetail, error) {
	cpls, err := s.catalog.ListCPL(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cpl catalog")
	}
	return cpls, nil
}

// ListCourses returns the course catalog.
func (s *CurriculumService) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.catalog.ListCourses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListIK returns the performance indicators under one program outcome.
func (s *CurriculumService) ListIK(ctx context.Context, cplID string) ([]models.IK, error) {
	if cplID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cplId is required")
	}
	iks, err := s.catalog.ListIKByCPL(ctx, cplID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list indicators")
	}
	return iks, nil
}
