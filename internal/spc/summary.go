package spc

// Subgroup size above which the X̄-S chart is preferred.
const RecommendXSAbove = 10

// Summary describes the dataset as a whole.
type Summary struct {
	Subgroups    int     `json:"subgroups"`
	SubgroupSize int     `json:"subgroup_size"`
	Observations int     `json:"observations"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
}

// Summarize returns global descriptive statistics over every observation.
// StdDev is the overall sample standard deviation (n-1 denominator).
func Summarize(ds Dataset) (Summary, error) {
	if err := ds.validate(); err != nil {
		return Summary{}, err
	}

	flat := ds.Flatten()
	lo, hi := flat[0], flat[0]
	for _, v := range flat {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	return Summary{
		Subgroups:    ds.NumSubgroups(),
		SubgroupSize: ds.SubgroupSize(),
		Observations: len(flat),
		Min:          Round(lo, SeriesDecimals),
		Max:          Round(hi, SeriesDecimals),
		Mean:         Round(average(flat), SeriesDecimals),
		StdDev:       Round(sampleStdDev(flat), SeriesDecimals),
	}, nil
}

// SuggestSpecLimits proposes mean ± 3 overall sigma as reference limits.
// The suggestion is never applied to capability on its own.
func SuggestSpecLimits(ds Dataset) (SpecLimits, error) {
	if err := ds.validate(); err != nil {
		return SpecLimits{}, err
	}
	flat := ds.Flatten()
	mean := average(flat)
	sigma := sampleStdDev(flat)
	return SpecLimits{
		USL: Round(mean+3*sigma, SeriesDecimals),
		LSL: Round(mean-3*sigma, SeriesDecimals),
	}, nil
}

// RecommendChart picks X̄-R for small subgroups and X̄-S for larger ones.
func RecommendChart(n int) ChartType {
	if n > RecommendXSAbove {
		return ChartXS
	}
	return ChartXR
}

// DegradedCapability is the best-effort record a caller may substitute when
// capability fails with ErrDegenerateVariation: zero indices with the
// flattened mean and overall sample sigma.
func DegradedCapability(ds Dataset) CapabilityIndices {
	flat := ds.Flatten()
	return CapabilityIndices{
		Mean:  Round(average(flat), CapabilityDecimals),
		Sigma: Round(sampleStdDev(flat), CapabilityDecimals),
	}
}
