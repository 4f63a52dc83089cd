package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestClassRepositoryListByTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "term_id", "name", "credit_hours", "created_at", "updated_at"}).
		AddRow("class-1", "course-1", "term-1", "A", 3.0, now, now)
	mock.ExpectQuery("FROM class_offerings WHERE term_id").
		WithArgs("term-1").
		WillReturnRows(rows)

	classes, err := repo.ListByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.Equal(t, 3.0, classes[0].CreditHours)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListComponents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "class_id", "name", "weight", "cpmk_id", "created_at", "updated_at"}).
		AddRow("comp-1", "class-1", "UTS", 30.0, "cpmk-1", now, now).
		AddRow("comp-2", "class-1", "Kehadiran", 10.0, nil, now, now)
	mock.ExpectQuery("FROM grade_components WHERE class_id").
		WithArgs("class-1").
		WillReturnRows(rows)

	components, err := repo.ListComponents(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, components, 2)
	require.NotNil(t, components[0].CPMKID)
	require.Nil(t, components[1].CPMKID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListCPMK(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "class_id", "code", "description", "weight_to_cpl", "created_at", "updated_at"}).
		AddRow("cpmk-1", "class-1", "CPMK1", "Designs algorithms", 50.0, now, now)
	mock.ExpectQuery("FROM cpmk WHERE class_id").
		WithArgs("class-1").
		WillReturnRows(rows)

	cpmks, err := repo.ListCPMK(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, cpmks, 1)
	require.Equal(t, 50.0, cpmks[0].WeightToCPL)
	require.NoError(t, mock.ExpectationsWereMet())
}
