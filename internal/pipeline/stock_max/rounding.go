package stock_max

import "math"

// roundingNoise is the relative slack below which a quotient just above an integer is
// treated as that integer. It absorbs float error such as 104/52*2 = 4.000000000000001
// so exact multiples are not pushed up a whole load, while real excess (10.000000001
// of a 10 load) still rounds up.
const roundingNoise = 1e-12

// RoundUpToMultiple rounds value up to the next multiple of multiple.
// A zero (or negative) multiple means "no rounding" and returns value unchanged.
// The result is never below value, except by float noise within roundingNoise.
func RoundUpToMultiple(value, multiple float64) float64 {
	if multiple <= 0 {
		return value
	}
	q := value / multiple
	r := math.Round(q)
	if d := q - r; d > 0 && d <= roundingNoise*math.Max(1, math.Abs(r)) {
		q = r
	}
	return math.Ceil(q) * multiple
}
