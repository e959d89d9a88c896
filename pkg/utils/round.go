package utils

import "math"

// Round1 rounds to one decimal place, halves away from zero.
func Round1(value float64) float64 {
	return math.Round(value*10) / 10
}
