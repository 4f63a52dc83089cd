package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akademika/obe-api/internal/models"
)

type studentSnapshotReaderMock struct {
	snapshots []models.StudentClassScores
	err       error
	calls     int
}

func (m *studentSnapshotReaderMock) StudentClassScores(_ context.Context, _ string, _ []string) ([]models.StudentClassScores, error) {
	m.calls++
	return m.snapshots, m.err
}

type cplCatalogReaderMock struct {
	cpls []models.CPLDetail
	err  error
}

func (m *cplCatalogReaderMock) ListCPL(_ context.Context) ([]models.CPLDetail, error) {
	return m.cpls, m.err
}

type reportObserverMock struct {
	kinds  []string
	hits   int
	misses int
}

func (m *reportObserverMock) ObserveReportBuild(kind string, _ time.Duration) {
	m.kinds = append(m.kinds, kind)
}

func (m *reportObserverMock) RecordCacheOperation(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func cplCatalog(codes ...string) []models.CPLDetail {
	cpls := make([]models.CPLDetail, 0, len(codes))
	for _, code := range codes {
		cpls = append(cpls, models.CPLDetail{CPL: models.CPL{ID: "id-" + code, Code: code, Description: "desc " + code}})
	}
	return cpls
}

// studentClassFixture builds a class where one CPMK fully covers CPL1's IK
// set with bobot_to_cpl 50 and a single UTS component carries the score.
func studentClassFixture(classID string, creditHours, score float64) models.StudentClassScores {
	return models.StudentClassScores{
		ClassSnapshot: models.ClassSnapshot{
			ClassID:     classID,
			ClassName:   classID,
			CourseID:    "course-" + classID,
			CourseCode:  "IF101",
			CourseName:  "Algoritma",
			TermID:      "term-1",
			CreditHours: creditHours,
			Components: []models.ComponentRef{
				{ID: classID + "-uts", Name: "UTS", Weight: 100, CPMKID: strPtr(classID + "-cpmk")},
			},
			CPMKs: []models.CPMKRef{
				{ID: classID + "-cpmk", Code: "CPMK1", WeightToCPL: 50, IKIDs: []string{"ik-1", "ik-2"}},
			},
			CPLs: []models.CPLRef{
				{ID: "cpl-1", Code: "CPL1", Description: "desc CPL1", IKIDs: []string{"ik-1", "ik-2"}},
			},
		},
		Scores: map[string]float64{classID + "-uts": score},
	}
}

func TestStudentReportSingleClass(t *testing.T) {
	snapshots := &studentSnapshotReaderMock{snapshots: []models.StudentClassScores{
		studentClassFixture("class-1", 3, 90),
	}}
	catalog := &cplCatalogReaderMock{cpls: cplCatalog("CPL1", "CPL2")}
	metrics := &reportObserverMock{}
	svc := NewStudentReportService(snapshots, catalog, metrics, nil, nil)

	report, err := svc.Build(context.Background(), StudentReportRequest{StudentID: "std-1", TermIDs: []string{"term-1"}})
	require.NoError(t, err)
	require.Equal(t, "std-1", report.StudentID)
	require.Len(t, report.Rows, 2)

	require.Equal(t, "CPL1", report.Rows[0].Code)
	require.Equal(t, 90.0, report.Rows[0].Score)

	// Unassessed outcomes are still listed, scored zero.
	require.Equal(t, "CPL2", report.Rows[1].Code)
	require.Equal(t, 0.0, report.Rows[1].Score)

	require.Equal(t, []string{"student_attainment"}, metrics.kinds)
}

func TestStudentReportAveragesAcrossClasses(t *testing.T) {
	snapshots := &studentSnapshotReaderMock{snapshots: []models.StudentClassScores{
		studentClassFixture("class-1", 3, 90),
		studentClassFixture("class-2", 3, 70),
	}}
	catalog := &cplCatalogReaderMock{cpls: cplCatalog("CPL1")}
	svc := NewStudentReportService(snapshots, catalog, nil, nil, nil)

	report, err := svc.Build(context.Background(), StudentReportRequest{StudentID: "std-1", TermIDs: []string{"term-1"}})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	require.Equal(t, 80.0, report.Rows[0].Score)
}

func TestStudentReportWeighsByCoefficient(t *testing.T) {
	// class-2 carries triple the credit hours, so its score dominates:
	// (90*150 + 60*450) / 600 = 67.5.
	snapshots := &studentSnapshotReaderMock{snapshots: []models.StudentClassScores{
		studentClassFixture("class-1", 3, 90),
		studentClassFixture("class-2", 9, 60),
	}}
	catalog := &cplCatalogReaderMock{cpls: cplCatalog("CPL1")}
	svc := NewStudentReportService(snapshots, catalog, nil, nil, nil)

	report, err := svc.Build(context.Background(), StudentReportRequest{StudentID: "std-1", TermIDs: []string{"term-1"}})
	require.NoError(t, err)
	require.Equal(t, 67.5, report.Rows[0].Score)
}

func TestStudentReportSkipsClassesWithoutCourse(t *testing.T) {
	orphan := studentClassFixture("class-2", 3, 10)
	orphan.CourseID = ""

	snapshots := &studentSnapshotReaderMock{snapshots: []models.StudentClassScores{
		studentClassFixture("class-1", 3, 90),
		orphan,
	}}
	catalog := &cplCatalogReaderMock{cpls: cplCatalog("CPL1")}
	svc := NewStudentReportService(snapshots, catalog, nil, nil, nil)

	report, err := svc.Build(context.Background(), StudentReportRequest{StudentID: "std-1", TermIDs: []string{"term-1"}})
	require.NoError(t, err)
	require.Equal(t, 90.0, report.Rows[0].Score)
}

func TestStudentReportEmptyTerms(t *testing.T) {
	snapshots := &studentSnapshotReaderMock{}
	svc := NewStudentReportService(snapshots, &cplCatalogReaderMock{}, nil, nil, nil)

	report, err := svc.Build(context.Background(), StudentReportRequest{StudentID: "std-1"})
	require.NoError(t, err)
	require.Empty(t, report.Rows)
	require.Zero(t, snapshots.calls)
}

func TestStudentReportRequiresStudentID(t *testing.T) {
	svc := NewStudentReportService(&studentSnapshotReaderMock{}, &cplCatalogReaderMock{}, nil, nil, nil)

	_, err := svc.Build(context.Background(), StudentReportRequest{TermIDs: []string{"term-1"}})
	require.Error(t, err)
}

func TestStudentReportIdempotent(t *testing.T) {
	snapshots := &studentSnapshotReaderMock{snapshots: []models.StudentClassScores{
		studentClassFixture("class-1", 3, 90),
		studentClassFixture("class-2", 3, 70),
	}}
	catalog := &cplCatalogReaderMock{cpls: cplCatalog("CPL1", "CPL2")}
	svc := NewStudentReportService(snapshots, catalog, nil, nil, nil)

	req := StudentReportRequest{StudentID: "std-1", TermIDs: []string{"term-1"}}
	first, err := svc.Build(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Build(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
