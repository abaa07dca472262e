package stock_max

import (
	"math"
	"testing"
)

func TestRoundUpToMultiple(t *testing.T) {
	cases := []struct {
		value, multiple, want float64
	}{
		{4, 10, 10},
		{10, 10, 10},
		{10.5, 10, 20},
		{7, 5, 10},
		{0, 6, 0},
		{104.0 / 52 * 2, 2, 4},
		{0.3, 0.1, 0.30000000000000004},
		{3.5, 0, 3.5},
		{3.5, -2, 3.5},
		{10.000000001, 10, 20},
		{1000.0000001, 1000, 2000},
		{24.00001, 12, 36},
	}
	for _, tc := range cases {
		got := RoundUpToMultiple(tc.value, tc.multiple)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("RoundUpToMultiple(%v, %v) = %v, want %v", tc.value, tc.multiple, got, tc.want)
		}
	}
}

func TestRoundUpToMultipleProperties(t *testing.T) {
	for _, m := range []float64{1, 2, 6, 12, 24} {
		for v := 0.0; v <= 100; v += 0.75 {
			got := RoundUpToMultiple(v, m)
			if got < v-1e-9 {
				t.Fatalf("RoundUpToMultiple(%v, %v) = %v is below the input", v, m, got)
			}
			if got-v >= m {
				t.Fatalf("RoundUpToMultiple(%v, %v) = %v overshoots by a full multiple", v, m, got)
			}
			if q := got / m; math.Abs(q-math.Round(q)) > 1e-9 {
				t.Fatalf("RoundUpToMultiple(%v, %v) = %v is not a multiple", v, m, got)
			}
		}
	}
}

func TestRoundUpToMultipleNeverBelowInput(t *testing.T) {
	values := []float64{10.000000001, 1000.0000001, 1e6 + 0.001, 52.0000001, 0.1 + 0.2}
	for _, m := range []float64{0.1, 1, 10, 1000} {
		for _, v := range values {
			if got := RoundUpToMultiple(v, m); got < v*(1-roundingNoise) {
				t.Errorf("RoundUpToMultiple(%v, %v) = %v is below the input", v, m, got)
			}
		}
	}
}
