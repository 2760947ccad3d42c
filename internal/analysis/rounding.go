package analysis

import "math"

// Decimal places used by the reports.
const (
	delayPlaces = 4
	ratioPlaces = 2
)

// RoundTo rounds x to the given number of decimal places, halves away
// from zero.
func RoundTo(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}

// RoundHalfUp rounds x to the nearest integer with halves going up
// (4.5 becomes 5).
func RoundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

func roundNullable(valid bool, v float64, places int) *float64 {
	if !valid {
		return nil
	}
	r := RoundTo(v, places)
	return &r
}
