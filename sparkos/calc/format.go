package calc

import (
	"math"
	"strconv"
)

// FormatNumber renders v as the shortest decimal that round-trips, without an
// exponent. Negative zero and non-finite values render as "0".
func FormatNumber(v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseNumber reads display text. Anything that is not a finite number reads as 0.
func ParseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
