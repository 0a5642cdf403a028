package spc

import (
	"fmt"
	"math"
)

// Capability rating thresholds.
const (
	CapableThreshold    = 1.33
	AcceptableThreshold = 1.0
)

// Rating classifies a capability index.
type Rating string

const (
	RatingCapable    Rating = "capable"
	RatingAcceptable Rating = "acceptable"
	RatingNotCapable Rating = "not_capable"
)

// RateIndex maps an index value to its rating band.
func RateIndex(v float64) Rating {
	switch {
	case v >= CapableThreshold:
		return RatingCapable
	case v >= AcceptableThreshold:
		return RatingAcceptable
	default:
		return RatingNotCapable
	}
}

// ValidateSpecLimits checks that both limits are finite and USL > LSL.
func ValidateSpecLimits(spec SpecLimits) error {
	if math.IsNaN(spec.USL) || math.IsInf(spec.USL, 0) {
		return newError(KindInvalidSpecificationLimits, "usl", "upper specification limit must be finite", spec.USL)
	}
	if math.IsNaN(spec.LSL) || math.IsInf(spec.LSL, 0) {
		return newError(KindInvalidSpecificationLimits, "lsl", "lower specification limit must be finite", spec.LSL)
	}
	if spec.USL == spec.LSL {
		return newError(KindInvalidSpecificationLimits, "usl",
			"upper and lower specification limits are equal", map[string]float64{"usl": spec.USL, "lsl": spec.LSL})
	}
	if spec.USL < spec.LSL {
		return newError(KindInvalidSpecificationLimits, "usl",
			"upper specification limit is below the lower limit", map[string]float64{"usl": spec.USL, "lsl": spec.LSL})
	}
	return nil
}

// ComputeCapability returns Cp, Cpk and Cpm for ds against spec, estimating
// sigma from ranges (X̄-R) or standard deviations (X̄-S).
func ComputeCapability(ds Dataset, spec SpecLimits, chart ChartType) (CapabilityIndices, error) {
	if err := ds.validate(); err != nil {
		return CapabilityIndices{}, err
	}
	return CapabilityFromStatistics(ComputeStatistics(ds), ds.Flatten(), ds.SubgroupSize(), spec, chart)
}

// CapabilityFromStatistics is ComputeCapability for callers that already hold
// the full-precision subgroup statistics and flattened observations.
func CapabilityFromStatistics(stats SubgroupStatistics, observations []float64, n int, spec SpecLimits, chart ChartType) (CapabilityIndices, error) {
	if err := ValidateSpecLimits(spec); err != nil {
		return CapabilityIndices{}, err
	}
	if !chart.Valid() {
		return CapabilityIndices{}, newError(KindInvalidChartType, "chart_type", "unknown chart type", int(chart))
	}
	row, err := LookupConstants(n)
	if err != nil {
		return CapabilityIndices{}, err
	}
	if stats.Len() == 0 || len(observations) == 0 {
		return CapabilityIndices{}, newError(KindInvalidDataset, "subgroups", "no observations", 0)
	}

	f, err := chart.Factors(row)
	if err != nil {
		return CapabilityIndices{}, err
	}

	mu := average(observations)
	var spread float64
	if chart == ChartXR {
		spread = average(stats.Ranges)
	} else {
		spread = average(stats.Stds)
	}
	sigma := spread / f.SigmaDivisor

	if math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma <= 0 {
		return CapabilityIndices{}, newError(KindDegenerateVariation, "sigma",
			fmt.Sprintf("invalid standard deviation %g: no variation in data", sigma), sigma)
	}

	width := spec.USL - spec.LSL
	cp := width / (6 * sigma)
	cpu := (spec.USL - mu) / (3 * sigma)
	cpl := (mu - spec.LSL) / (3 * sigma)
	offset := mu - spec.Target()
	cpm := width / (6 * math.Sqrt(sigma*sigma+offset*offset))

	return CapabilityIndices{
		Cp:    Round(cp, CapabilityDecimals),
		Cpk:   Round(math.Min(cpu, cpl), CapabilityDecimals),
		Cpm:   Round(cpm, CapabilityDecimals),
		Cpu:   Round(cpu, CapabilityDecimals),
		Cpl:   Round(cpl, CapabilityDecimals),
		Mean:  Round(mu, CapabilityDecimals),
		Sigma: Round(sigma, CapabilityDecimals),
	}, nil
}
