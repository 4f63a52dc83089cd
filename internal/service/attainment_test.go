package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akademika/obe-api/internal/models"
)

func TestComponentAverage(t *testing.T) {
	require.Equal(t, 0.0, ComponentAverage(nil))
	require.Equal(t, 0.0, ComponentAverage([]float64{}))
	require.Equal(t, 85.0, ComponentAverage([]float64{80, 90}))
}

func TestComponentAverageClampsBadInputs(t *testing.T) {
	require.Equal(t, 45.0, ComponentAverage([]float64{-10, 90}))
	require.Equal(t, 45.0, ComponentAverage([]float64{math.NaN(), 90}))
	require.Equal(t, 45.0, ComponentAverage([]float64{math.Inf(1), 90}))
}

func TestCPMKScoreWeightedMean(t *testing.T) {
	score := CPMKScore([]WeightedValue{
		{Value: 80, Weight: 60},
		{Value: 70, Weight: 40},
	})
	require.InDelta(t, 76.0, score, 1e-9)
}

func TestCPMKScoreZeroTotalWeight(t *testing.T) {
	score := CPMKScore([]WeightedValue{{Value: 80, Weight: 0}})
	require.Equal(t, 0.0, score)
	require.False(t, math.IsNaN(score))

	require.Equal(t, 0.0, CPMKScore(nil))
}

func TestFinalRollupNegativeWeightsIgnored(t *testing.T) {
	score := FinalRollup([]WeightedValue{
		{Value: 80, Weight: -5},
		{Value: 60, Weight: 2},
	})
	require.InDelta(t, 60.0, score, 1e-9)
}

func TestCoefficient(t *testing.T) {
	// 3 sks, 1 of 2 IKs covered, bobot_to_cpl 50.
	require.InDelta(t, 75.0, Coefficient(3, 1, 2, 50), 1e-9)
	// Full IK coverage.
	require.InDelta(t, 150.0, Coefficient(3, 2, 2, 50), 1e-9)
	// Unset bobot_to_cpl zeroes the contribution.
	require.Equal(t, 0.0, Coefficient(3, 2, 2, 0))
	// A CPL with no recorded IKs uses a denominator of 1.
	require.InDelta(t, 150.0, Coefficient(3, 1, 0, 50), 1e-9)
	// Negative link counts are clamped.
	require.Equal(t, 0.0, Coefficient(3, -1, 2, 50))
}

func TestRound2HalfUp(t *testing.T) {
	require.Equal(t, 0.13, Round2(0.125))
	require.Equal(t, 0.38, Round2(0.375))
	require.Equal(t, 76.0, Round2(76.0))
	require.Equal(t, 0.0, Round2(math.NaN()))
	require.Equal(t, 0.0, Round2(math.Inf(1)))
	require.Equal(t, 0.0, Round2(math.Inf(-1)))
}

func strPtr(s string) *string { return &s }

func testSnapshot() models.ClassSnapshot {
	return models.ClassSnapshot{
		ClassID:     "class-1",
		ClassName:   "A",
		CourseID:    "course-1",
		CourseCode:  "IF101",
		CourseName:  "Algoritma",
		TermID:      "term-1",
		CreditHours: 3,
		Components: []models.ComponentRef{
			{ID: "comp-uts", Name: "UTS", Weight: 30, CPMKID: strPtr("cpmk-1")},
			{ID: "comp-uas", Name: "UAS", Weight: 40, CPMKID: strPtr("cpmk-1")},
			{ID: "comp-free", Name: "Kehadiran", Weight: 10, CPMKID: nil},
		},
		CPMKs: []models.CPMKRef{
			{ID: "cpmk-1", Code: "CPMK1", WeightToCPL: 50, IKIDs: []string{"ik-1"}},
		},
		CPLs: []models.CPLRef{
			{ID: "cpl-1", Code: "CPL1", Description: "Problem solving", IKIDs: []string{"ik-1", "ik-2"}},
		},
	}
}

func TestAccumulateClassAttainment(t *testing.T) {
	snap := testSnapshot()
	scores := map[string]float64{"comp-uts": 80, "comp-uas": 90}

	acc := make(map[string]*cplAccumulator)
	accumulateClassAttainment(snap, func(id string) float64 { return scores[id] }, acc)

	bucket, ok := acc["CPL1"]
	require.True(t, ok)

	// CPMK score: (80*30 + 90*40) / 70.
	wantScore := (80.0*30 + 90.0*40) / 70.0
	// Coefficient: 3 sks * (1/2 IK coverage) * 50.
	wantCoef := 75.0
	require.InDelta(t, wantCoef, bucket.coefSum, 1e-9)
	require.InDelta(t, wantScore, bucket.final(), 1e-9)
}

func TestAccumulateClassAttainmentNoIKOverlap(t *testing.T) {
	snap := testSnapshot()
	snap.CPMKs[0].IKIDs = []string{"ik-other"}

	acc := make(map[string]*cplAccumulator)
	accumulateClassAttainment(snap, func(string) float64 { return 100 }, acc)
	require.Empty(t, acc)
}

func TestAccumulateClassAttainmentUnlinkedComponentsIgnored(t *testing.T) {
	snap := testSnapshot()
	snap.Components = []models.ComponentRef{
		{ID: "comp-free", Name: "Kehadiran", Weight: 10, CPMKID: nil},
	}

	acc := make(map[string]*cplAccumulator)
	accumulateClassAttainment(snap, func(string) float64 { return 100 }, acc)
	require.Empty(t, acc)
}

func TestCPLAccumulatorZeroCoef(t *testing.T) {
	bucket := &cplAccumulator{}
	require.Equal(t, 0.0, bucket.final())
}
