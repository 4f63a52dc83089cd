package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestCurriculumRepositoryListCPL(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCurriculumRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "description", "created_at", "updated_at", "ik_count"}).
		AddRow("cpl-1", "CPL1", "Problem solving", now, now, 3).
		AddRow("cpl-2", "CPL2", "Communication", now, now, 0)
	mock.ExpectQuery("FROM cpl").WillReturnRows(rows)

	cpls, err := repo.ListCPL(context.Background())
	require.NoError(t, err)
	require.Len(t, cpls, 2)
	require.Equal(t, "CPL1", cpls[0].Code)
	require.Equal(t, 3, cpls[0].IKCount)
	require.Equal(t, 0, cpls[1].IKCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCurriculumRepositoryListIKByCPL(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCurriculumRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "description", "cpl_id", "created_at", "updated_at"}).
		AddRow("ik-1", "IK1.1", "Formulates problems", "cpl-1", now, now)
	mock.ExpectQuery("FROM ik WHERE cpl_id").
		WithArgs("cpl-1").
		WillReturnRows(rows)

	iks, err := repo.ListIKByCPL(context.Background(), "cpl-1")
	require.NoError(t, err)
	require.Len(t, iks, 1)
	require.Equal(t, "cpl-1", iks[0].CPLID)
	require.NoError(t, mock.ExpectationsWereMet())
}
