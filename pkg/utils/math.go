package utils

import "math"

// Clamp returns v limited to the inclusive range [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundPercent converts a numerator/denominator pair to a rounded percentage
// in [0, 100]. A zero denominator yields 0.
func RoundPercent(num, den int) int {
	if den <= 0 {
		return 0
	}
	pct := int(math.Round(float64(num) / float64(den) * 100))
	return Clamp(pct, 0, 100)
}
