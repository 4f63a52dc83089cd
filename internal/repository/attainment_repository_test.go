package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttainmentRepositoryStudentClassScores(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttainmentRepository(db)

	mock.ExpectQuery("FROM enrollments").
		WithArgs("term-1", "std-1").
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id", "class_id", "class_name", "term_id", "credit_hours", "course_id", "course_code", "course_name"}).
			AddRow("enr-1", "class-1", "A", "term-1", 3.0, "course-1", "IF101", "Algoritma"))

	mock.ExpectQuery("FROM grade_components").
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "name", "weight", "cpmk_id"}).
			AddRow("comp-1", "class-1", "UTS", 30.0, "cpmk-1").
			AddRow("comp-2", "class-1", "Tugas", 10.0, nil))

	mock.ExpectQuery("FROM cpmk").
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "code", "weight_to_cpl", "ik_id"}).
			AddRow("cpmk-1", "class-1", "CPMK1", 50.0, "ik-1").
			AddRow("cpmk-1", "class-1", "CPMK1", 50.0, "ik-2"))

	mock.ExpectQuery("FROM course_cpl").
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "id", "code", "description", "ik_id"}).
			AddRow("course-1", "cpl-1", "CPL1", "Problem solving", "ik-1").
			AddRow("course-1", "cpl-1", "CPL1", "Problem solving", "ik-2"))

	mock.ExpectQuery("FROM component_scores").
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id", "component_id", "score"}).
			AddRow("enr-1", "comp-1", 85.0))

	snapshots, err := repo.StudentClassScores(context.Background(), "std-1", []string{"term-1"})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	snap := snapshots[0]
	require.Equal(t, "class-1", snap.ClassID)
	require.Equal(t, "course-1", snap.CourseID)
	require.Equal(t, 3.0, snap.CreditHours)
	require.Len(t, snap.Components, 2)
	require.Len(t, snap.CPMKs, 1)
	require.Equal(t, []string{"ik-1", "ik-2"}, snap.CPMKs[0].IKIDs)
	require.Len(t, snap.CPLs, 1)
	require.Equal(t, []string{"ik-1", "ik-2"}, snap.CPLs[0].IKIDs)
	require.Equal(t, 85.0, snap.Scores["comp-1"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttainmentRepositoryStudentClassScoresEmptyTerms(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttainmentRepository(db)

	snapshots, err := repo.StudentClassScores(context.Background(), "std-1", nil)
	require.NoError(t, err)
	require.Empty(t, snapshots)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttainmentRepositoryClassCohortScores(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttainmentRepository(db)

	mock.ExpectQuery("FROM class_offerings").
		WithArgs("term-1").
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "class_name", "term_id", "credit_hours", "course_id", "course_code", "course_name"}).
			AddRow("class-1", "A", "term-1", 3.0, "course-1", "IF101", "Algoritma").
			AddRow("class-2", "B", "term-1", 2.0, nil, nil, nil))

	mock.ExpectQuery("FROM grade_components").
		WithArgs("class-1", "class-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "name", "weight", "cpmk_id"}).
			AddRow("comp-1", "class-1", "UTS", 30.0, "cpmk-1"))

	mock.ExpectQuery("FROM cpmk").
		WithArgs("class-1", "class-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "code", "weight_to_cpl", "ik_id"}).
			AddRow("cpmk-1", "class-1", "CPMK1", 50.0, "ik-1"))

	mock.ExpectQuery("FROM course_cpl").
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "id", "code", "description", "ik_id"}).
			AddRow("course-1", "cpl-1", "CPL1", "Problem solving", "ik-1"))

	mock.ExpectQuery("FROM component_scores").
		WithArgs("class-1", "class-2").
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "component_id", "score"}).
			AddRow("class-1", "comp-1", 80.0).
			AddRow("class-1", "comp-1", 90.0))

	snapshots, err := repo.ClassCohortScores(context.Background(), []string{"term-1"})
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	require.Equal(t, "class-1", snapshots[0].ClassID)
	require.Equal(t, []float64{80, 90}, snapshots[0].Scores["comp-1"])

	// A class with no linked course still appears, with an empty CourseID.
	require.Equal(t, "class-2", snapshots[1].ClassID)
	require.Empty(t, snapshots[1].CourseID)
	require.Empty(t, snapshots[1].CPLs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDedupeIDs(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, dedupeIDs([]string{"a", "b", "a", "b"}))
	require.Empty(t, dedupeIDs(nil))
}

func TestInArgs(t *testing.T) {
	placeholders, args := inArgs([]string{"x", "y"}, 3)
	require.Equal(t, "$3,$4", placeholders)
	require.Equal(t, []interface{}{"x", "y"}, args)
}
