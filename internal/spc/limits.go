package spc

import "fmt"

// EstimateLimits computes all four limit triples for ds. Both chart families
// are independent and are always computed together; callers pick the pair
// they need with ControlLimits.ForChart.
func EstimateLimits(ds Dataset) (ControlLimits, error) {
	if err := ds.validate(); err != nil {
		return ControlLimits{}, err
	}
	return LimitsFromStatistics(ComputeStatistics(ds), ds.SubgroupSize())
}

// LimitsFromStatistics estimates both chart families from precomputed
// full-precision statistics for subgroups of size n.
func LimitsFromStatistics(stats SubgroupStatistics, n int) (ControlLimits, error) {
	if stats.Len() == 0 {
		return ControlLimits{}, newError(KindInvalidDataset, "subgroups", "no subgroup statistics", 0)
	}
	row, err := LookupConstants(n)
	if err != nil {
		return ControlLimits{}, err
	}

	xr, r, err := chartLimits(stats, row, ChartXR)
	if err != nil {
		return ControlLimits{}, err
	}
	xs, s, err := chartLimits(stats, row, ChartXS)
	if err != nil {
		return ControlLimits{}, err
	}

	return ControlLimits{
		XR: roundTriple(xr),
		R:  roundTriple(r),
		XS: roundTriple(xs),
		S:  roundTriple(s),
	}, nil
}

// EstimateChartLimits returns the rounded mean-chart and companion-chart
// triples for a single chart type.
func EstimateChartLimits(stats SubgroupStatistics, n int, chart ChartType) (mean, companion LimitTriple, err error) {
	if !chart.Valid() {
		return LimitTriple{}, LimitTriple{}, newError(KindInvalidChartType, "chart_type", "unknown chart type", int(chart))
	}
	if stats.Len() == 0 {
		return LimitTriple{}, LimitTriple{}, newError(KindInvalidDataset, "subgroups", "no subgroup statistics", 0)
	}
	row, err := LookupConstants(n)
	if err != nil {
		return LimitTriple{}, LimitTriple{}, err
	}

	mean, companion, err = chartLimits(stats, row, chart)
	if err != nil {
		return LimitTriple{}, LimitTriple{}, err
	}
	return roundTriple(mean), roundTriple(companion), nil
}

// chartLimits works at full precision; callers round.
func chartLimits(stats SubgroupStatistics, row ConstantsRow, chart ChartType) (mean, companion LimitTriple, err error) {
	f, err := chart.Factors(row)
	if err != nil {
		return LimitTriple{}, LimitTriple{}, err
	}

	grandMean := average(stats.Means)
	var spread float64
	switch chart {
	case ChartXR:
		spread = average(stats.Ranges)
	case ChartXS:
		spread = average(stats.Stds)
	default:
		return LimitTriple{}, LimitTriple{}, fmt.Errorf("chart %s: %w", chart, ErrInvalidChartType)
	}

	mean = LimitTriple{
		UCL: grandMean + f.CenterFactor*spread,
		LCL: grandMean - f.CenterFactor*spread,
		CL:  grandMean,
	}
	companion = LimitTriple{
		UCL: f.UpperFactor * spread,
		LCL: f.LowerFactor * spread,
		CL:  spread,
	}
	return mean, companion, nil
}
