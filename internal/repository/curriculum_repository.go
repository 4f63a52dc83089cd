package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/akademika/obe-api/internal/models"
)

// CurriculumRepository reads the outcome taxonomy catalog (CPL and IK).
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository creates a curriculum catalog repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// ListCPL returns every CPL in the catalog with its IK count, ascending by
// code. The report builders emit one row per entry returned here.
func (r *CurriculumRepository) ListCPL(ctx context.Context) ([]models.CPLDetail, error) {
	const query = `SELECT p.id, p.code, p.description, p.created_at, p.updated_at, COUNT(i.id) AS ik_count
        FROM cpl p
        LEFT JOIN ik i ON i.cpl_id = p.id
        GROUP BY p.id, p.code, p.description, p.created_at, p.updated_at
        ORDER BY p.code ASC`
	var cpls []models.CPLDetail
	if err := r.db.SelectContext(ctx, &cpls, query); err != nil {
		return nil, fmt.Errorf("list cpl catalog: %w", err)
	}
	return cpls, nil
}

// ListCourses returns the course catalog ascending by code.
func (r *CurriculumRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM courses ORDER BY code ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListIKByCPL returns the performance indicators recorded under one CPL.
func (r *CurriculumRepository) ListIKByCPL(ctx context.Context, cplID string) ([]models.IK, error) {
	const query = `SELECT id, code, description, cpl_id, created_at, updated_at
        FROM ik WHERE cpl_id = $1 ORDER BY code ASC`
	var iks []models.IK
	if err := r.db.SelectContext(ctx, &iks, query, cplID); err != nil {
		return nil, fmt.Errorf("list ik by cpl: %w", err)
	}
	return iks, nil
}
