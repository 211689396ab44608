// Package carbon converts scan weight into energy and CO2 and scores the
// result against a budget. Nothing here rounds; rounding is a reporting
// concern.
package carbon

import (
	"errors"
	"fmt"
	"math"

	"carbonlint/tables"
)

// Calibration: 1000 weight units ≈ 0.01 kWh.
const (
	weightUnitsPerBlock = 1000.0
	kWhPerBlock         = 0.01
)

// ErrInvalidBudget is returned when the budget is zero or negative.
var ErrInvalidBudget = errors.New("carbon budget must be greater than zero")

// ErrInvalidEstimate is returned when the carbon estimate is not a number.
var ErrInvalidEstimate = errors.New("carbon estimate is not a number")

type Footprint struct {
	BaselineKWh float64
	EnergyKWh   float64
	CarbonGrams float64
	Region      tables.Region
}

// Estimate converts totalWeight into energy and carbon. regionKey is
// uppercased and silently replaced by the global average when unknown.
// The hardware profile plays no part in the formula.
func Estimate(totalWeight, pue float64, regionKey string) Footprint {
	baseline := (totalWeight / weightUnitsPerBlock) * kWhPerBlock
	energy := baseline * pue
	region := tables.ResolveRegion(regionKey)
	return Footprint{
		BaselineKWh: baseline,
		EnergyKWh:   energy,
		CarbonGrams: energy * region.Intensity,
		Region:      region,
	}
}

// GreenScore maps carbon/budget onto 0..100. At budget the score is 50, at
// twice the budget or more it is 0. Rounding is half away from zero.
func GreenScore(carbonGrams, budget float64) (int, error) {
	if budget <= 0 || math.IsNaN(budget) {
		return 0, fmt.Errorf("%w: got %g", ErrInvalidBudget, budget)
	}
	if math.IsNaN(carbonGrams) {
		return 0, ErrInvalidEstimate
	}
	ratio := carbonGrams / budget
	raw := math.Round(100 - ratio*50)
	if raw < 0 {
		return 0, nil
	}
	if raw > 100 {
		return 100, nil
	}
	return int(raw), nil
}

// Label returns the human label for a green score.
func Label(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 75:
		return "Good"
	case score >= 50:
		return "Fair"
	case score >= 25:
		return "Needs Work"
	default:
		return "Poor"
	}
}
