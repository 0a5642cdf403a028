package spc

import "math"

// Output precision.
const (
	SeriesDecimals     = 3
	CapabilityDecimals = 4
)

// Round rounds v half away from zero to the given number of decimals.
// Negative zero is normalized to zero.
func Round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(decimals))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0
	}
	return r
}

func roundSeries(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = Round(v, SeriesDecimals)
	}
	return out
}

func roundTriple(t LimitTriple) LimitTriple {
	return LimitTriple{
		UCL: Round(t.UCL, SeriesDecimals),
		LCL: Round(t.LCL, SeriesDecimals),
		CL:  Round(t.CL, SeriesDecimals),
	}
}
