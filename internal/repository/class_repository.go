package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/akademika/obe-api/internal/models"
)

// ClassRepository reads class offerings and their grading structure.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListByTerm returns the class offerings scheduled in one term.
func (r *ClassRepository) ListByTerm(ctx context.Context, termID string) ([]models.ClassOffering, error) {
	const query = `SELECT id, course_id, term_id, name, credit_hours, created_at, updated_at
        FROM class_offerings WHERE term_id = $1 ORDER BY name ASC`
	var classes []models.ClassOffering
	if err := r.db.SelectContext(ctx, &classes, query, termID); err != nil {
		return nil, fmt.Errorf("list classes by term: %w", err)
	}
	return classes, nil
}

// FindByID returns a single class offering.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassOffering, error) {
	const query = `SELECT id, course_id, term_id, name, credit_hours, created_at, updated_at
        FROM class_offerings WHERE id = $1`
	var class models.ClassOffering
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// ListComponents returns the grade components of one class.
func (r *ClassRepository) ListComponents(ctx context.Context, classID string) ([]models.GradeComponent, error) {
	const query = `SELECT id, class_id, name, weight, cpmk_id, created_at, updated_at
        FROM grade_components WHERE class_id = $1 ORDER BY name ASC`
	var components []models.GradeComponent
	if err := r.db.SelectContext(ctx, &components, query, classID); err != nil {
		return nil, fmt.Errorf("list grade components: %w", err)
	}
	return components, nil
}

// ListCPMK returns the course learning outcomes defined for one class.
func (r *ClassRepository) ListCPMK(ctx context.Context, classID string) ([]models.CPMK, error) {
	const query = `SELECT id, class_id, code, description, weight_to_cpl, created_at, updated_at
        FROM cpmk WHERE class_id = $1 ORDER BY code ASC`
	var cpmks []models.CPMK
	if err := r.db.SelectContext(ctx, &cpmks, query, classID); err != nil {
		return nil, fmt.Errorf("list cpmk by class: %w", err)
	}
	return cpmks, nil
}

// ListEnrollments returns the enrollments of one class.
func (r *ClassRepository) ListEnrollments(ctx context.Context, classID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, class_id, term_id, created_at
        FROM enrollments WHERE class_id = $1 ORDER BY created_at ASC`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, classID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}
