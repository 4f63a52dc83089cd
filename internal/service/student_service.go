package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/akademika/obe-api/internal/models"
	appErrors "github.com/akademika/obe-api/pkg/errors"
)

type studentReader interface {
	List(ctx context.Context, search string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// StudentService exposes the student roster.
type StudentService struct {
	students studentReader
	logger   *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentReader, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, logger: logger}
}

// List returns students matching the optional search term.
func (s *StudentService) List(ctx context.Context, search string) ([]models.Student, error) {
	students, err := s.students.List(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns one student by identifier.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}
