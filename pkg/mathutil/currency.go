// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/ssolson/upOpt/pkg/constants"
)

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Monthly projects an hourly yield onto a 30-day month.
func Monthly(hourly float64) float64 {
	return hourly * constants.HoursPerMonth
}

// BoostGain is the extra hourly yield a boost factor adds on top of the base yield.
func BoostGain(yield, boost float64) float64 {
	return boost*yield - yield
}

// Scale converts a non-negative weight into an integer solver coefficient.
// Positive weights never scale to zero so that the solver still prefers them.
func Scale(val float64, scale int) int {
	if val <= 0 || scale <= 0 {
		return 0
	}
	scaled := int(math.Round(val * float64(scale)))
	if scaled == 0 {
		return 1
	}
	return scaled
}
