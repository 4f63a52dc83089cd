package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/akademika/obe-api/internal/models"
	appErrors "github.com/akademika/obe-api/pkg/errors"
)

type classReader interface {
	ListByTerm(ctx context.Context, termID string) ([]models.ClassOffering, error)
	FindByID(ctx context.Context, id string) (*models.ClassOffering, error)
	ListComponents(ctx context.Context, classID string) ([]models.GradeComponent, error)
	ListCPMK(ctx context.Context, classID string) ([]models.CPMK, error)
	ListEnrollments(ctx context.Context, classID string) ([]models.Enrollment, error)
}

// ClassService exposes class offerings and their grading structure.
type ClassService struct {
	classes classReader
	logger  *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(classes classReader, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{classes: classes, logger: logger}
}

// ListByTerm returns the class offerings scheduled in one term.
func (s *ClassService) ListByTerm(ctx context.Context, termID string) ([]models.ClassOffering, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId is required")
	}
	classes, err := s.classes.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Get returns one class offering.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassOffering, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// ListComponents returns the grade components of one class.
func (s *ClassService) ListComponents(ctx context.Context, classID string) ([]models.GradeComponent, error) {
	components, err := s.classes.ListComponents(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade components")
	}
	return components, nil
}

// ListCPMK returns the course learning outcomes of one class.
func (s *ClassService) ListCPMK(ctx context.Context, classID string) ([]models.CPMK, error) {
	cpmks, err := s.classes.ListCPMK(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cpmk")
	}
	return cpmks, nil
}

// ListEnrollments returns the enrollments of one class.
func (s *ClassService) ListEnrollments(ctx context.Context, classID string) ([]models.Enrollment, error) {
	enrollments, err := s.classes.ListEnrollments(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}
