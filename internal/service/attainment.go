package service

import (
	"math"

	"github.com/akademika/obe-api/internal/models"
)

// Pure attainment math. Every division is guarded: a zero total weight
// means "no data" and yields 0, never NaN or Inf. Upstream weights are not
// trusted to be well formed, so all numeric inputs pass through sanitize
// before aggregation.

// WeightedValue pairs a score with its aggregation weight.
type WeightedValue struct {
	Value  float64
	Weight float64
}

// ComponentAverage returns the arithmetic mean of the raw scores for one
// grade component. An empty input yields 0.
func ComponentAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += sanitize(s)
	}
	return sum / float64(len(scores))
}

// CPMKScore computes a CPMK's score as the bobot_nilai-weighted mean of
// its component values.
func CPMKScore(pairs []WeightedValue) float64 {
	return weightedMean(pairs)
}

// FinalRollup is the generic weighted mean used for the IK->CPL and
// CPL->overall rollups.
func FinalRollup(pairs []WeightedValue) float64 {
	return weightedMean(pairs)
}

// Coefficient is the contribution weight of one CPMK's score toward one
// CPL: credit hours x covered fraction of the CPL's IK set x the CPMK's
// explicit bobot_to_cpl. An unset bobot_to_cpl persists as 0 and zeroes
// the coefficient, so an unconfigured CPMK earns no credit. A CPL with no
// recorded IKs gets a denominator of 1.
func Coefficient(creditHours float64, ikLinkCount, totalIKInCPL int, weightToCPL float64) float64 {
	if totalIKInCPL < 1 {
		totalIKInCPL = 1
	}
	if ikLinkCount < 0 {
		ikLinkCount = 0
	}
	return sanitize(creditHours) * (float64(ikLinkCount) / float64(totalIKInCPL)) * sanitize(weightToCPL)
}

// Round2 rounds half-up to 2 decimal places. Applied only at the report
// assembly boundary so intermediate rollups keep full precision.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Floor(v*100+0.5) / 100
}

func weightedMean(pairs []WeightedValue) float64 {
	sum := 0.0
	totalWeight := 0.0
	for _, p := range pairs {
		w := sanitize(p.Weight)
		sum += sanitize(p.Value) * w
		totalWeight += w
	}
	if totalWeight <= 0 {
		return 0
	}
	return sum / totalWeight
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// cplAccumulator collects the coefficient-weighted contributions of one
// CPL across classes.
type cplAccumulator struct {
	scoreSum float64
	coefSum  float64
}

func (a *cplAccumulator) final() float64 {
	if a.coefSum <= 0 {
		return 0
	}
	return a.scoreSum / a.coefSum
}

// accumulateClassAttainment folds one class's contribution into the per-CPL
// accumulators. valueOf supplies the component value for the report variant
// at hand: one student's score, or the cohort average. CPMKs referenced by
// more than one grade component are counted once; a CPMK is relevant to a
// CPL only when their IK sets intersect.
func accumulateClassAttainment(snap models.ClassSnapshot, valueOf func(componentID string) float64, acc map[string]*cplAccumulator) {
	componentsByCPMK := make(map[string][]models.ComponentRef)
	for _, comp := range snap.Components {
		if comp.CPMKID == nil || *comp.CPMKID == "" {
			continue
		}
		componentsByCPMK[*comp.CPMKID] = append(componentsByCPMK[*comp.CPMKID], comp)
	}
	if len(componentsByCPMK) == 0 {
		return
	}

	for _, cpl := range snap.CPLs {
		ikSet := make(map[string]struct{}, len(cpl.IKIDs))
		for _, ikID := range cpl.IKIDs {
			ikSet[ikID] = struct{}{}
		}

		for _, cpmk := range snap.CPMKs {
			components, referenced := componentsByCPMK[cpmk.ID]
			if !referenced {
				continue
			}
			ikLinkCount := 0
			for _, ikID := range cpmk.IKIDs {
				if _, ok := ikSet[ikID]; ok {
					ikLinkCount++
				}
			}
			if ikLinkCount == 0 {
				continue
			}

			pairs := make([]WeightedValue, 0, len(components))
			for _, comp := range components {
				pairs = append(pairs, WeightedValue{Value: valueOf(comp.ID), Weight: comp.Weight})
			}
			score := CPMKScore(pairs)
			coef := Coefficient(snap.CreditHours, ikLinkCount, len(cpl.IKIDs), cpmk.WeightToCPL)

			bucket, ok := acc[cpl.Code]
			if !ok {
				bucket = &cplAccumulator{}
				acc[cpl.Code] = bucket
			}
			bucket.scoreSum += score * coef
			bucket.coefSum += coef
		}
	}
}
