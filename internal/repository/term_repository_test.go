package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/akademika/obe-api/internal/models"
)

func termRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "academic_year", "semester", "is_active", "created_at", "updated_at"}).
		AddRow("term-1", "2025/2026 Ganjil", "2025/2026", "ODD", true, now, now)
}

func TestTermRepositoryListNoFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectQuery("FROM terms WHERE 1=1").WillReturnRows(termRows())

	terms, err := repo.List(context.Background(), models.TermFilter{})
	require.NoError(t, err)
	require.Len(t, terms, 1)
	require.Equal(t, models.SemesterOdd, terms[0].Semester)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("academic_year = $1 AND semester = $2 AND is_active = $3")).
		WithArgs("2025/2026", "ODD", true).
		WillReturnRows(termRows())

	terms, err := repo.List(context.Background(), models.TermFilter{
		AcademicYear: "2025/2026",
		Semester:     models.SemesterOdd,
		IsActive:     &active,
	})
	require.NoError(t, err)
	require.Len(t, terms, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectQuery("FROM terms WHERE id").
		WithArgs("term-1").
		WillReturnRows(termRows())

	term, err := repo.FindByID(context.Background(), "term-1")
	require.NoError(t, err)
	require.Equal(t, "term-1", term.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
