package spc

import (
	"fmt"
	"strings"
)

// ChartType selects the charting scheme. The zero value is not a valid chart.
type ChartType int

const (
	ChartXR ChartType = iota + 1 // X̄-R: ranges estimate variation
	ChartXS                      // X̄-S: standard deviations estimate variation
)

// String returns the canonical short name ("xr" or "xs").
func (c ChartType) String() string {
	switch c {
	case ChartXR:
		return "xr"
	case ChartXS:
		return "xs"
	default:
		return fmt.Sprintf("ChartType(%d)", int(c))
	}
}

// Valid reports whether c is one of the defined chart types.
func (c ChartType) Valid() bool {
	return c == ChartXR || c == ChartXS
}

// ParseChartType accepts "xr", "x-r", "xbar-r", "xs", "x-s" and "xbar-s", case-insensitive.
func ParseChartType(s string) (ChartType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xr", "x-r", "xbar-r", "xbarr":
		return ChartXR, nil
	case "xs", "x-s", "xbar-s", "xbars":
		return ChartXS, nil
	default:
		return 0, newError(KindInvalidChartType, "chart_type", fmt.Sprintf("unknown chart type %q", s), s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c ChartType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, newError(KindInvalidChartType, "chart_type", "cannot encode unknown chart type", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ChartType) UnmarshalText(text []byte) error {
	parsed, err := ParseChartType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ChartFactors is the factor set a chart type draws from a ConstantsRow.
type ChartFactors struct {
	// CenterFactor widens the mean chart: A2 for X̄-R, A3 for X̄-S.
	CenterFactor float64
	// LowerFactor and UpperFactor scale the companion chart center line:
	// D3/D4 for ranges, B3/B4 for standard deviations.
	LowerFactor float64
	UpperFactor float64
	// SigmaDivisor turns the companion average into a sigma estimate: d2 or c4.
	SigmaDivisor float64
}

// Factors selects the chart's factors from row.
func (c ChartType) Factors(row ConstantsRow) (ChartFactors, error) {
	switch c {
	case ChartXR:
		return ChartFactors{CenterFactor: row.A2, LowerFactor: row.D3, UpperFactor: row.D4, SigmaDivisor: row.D2}, nil
	case ChartXS:
		return ChartFactors{CenterFactor: row.A3, LowerFactor: row.B3, UpperFactor: row.B4, SigmaDivisor: row.C4}, nil
	default:
		return ChartFactors{}, newError(KindInvalidChartType, "chart_type", "unknown chart type", int(c))
	}
}

// SubgroupStatistics holds index-aligned per-subgroup summaries.
type SubgroupStatistics struct {
	Means  []float64 `json:"means"`
	Ranges []float64 `json:"ranges"`
	Stds   []float64 `json:"stds"`
}

// Len returns the number of subgroups summarized.
func (s SubgroupStatistics) Len() int {
	return len(s.Means)
}

// Rounded returns a copy with every series rounded for output.
func (s SubgroupStatistics) Rounded() SubgroupStatistics {
	return SubgroupStatistics{
		Means:  roundSeries(s.Means),
		Ranges: roundSeries(s.Ranges),
		Stds:   roundSeries(s.Stds),
	}
}

// LimitTriple is a set of control limits for one chart.
type LimitTriple struct {
	UCL float64 `json:"ucl"`
	LCL float64 `json:"lcl"`
	CL  float64 `json:"cl"`
}

// ControlLimits carries the limit triples of both chart families.
type ControlLimits struct {
	XR LimitTriple `json:"xr"` // mean chart, X̄-R scheme
	R  LimitTriple `json:"r"`  // range chart
	XS LimitTriple `json:"xs"` // mean chart, X̄-S scheme
	S  LimitTriple `json:"s"`  // standard deviation chart
}

// ForChart returns the (mean chart, companion chart) pair for chart.
func (l ControlLimits) ForChart(chart ChartType) (mean, companion LimitTriple, err error) {
	switch chart {
	case ChartXR:
		return l.XR, l.R, nil
	case ChartXS:
		return l.XS, l.S, nil
	default:
		return LimitTriple{}, LimitTriple{}, newError(KindInvalidChartType, "chart_type", "unknown chart type", int(chart))
	}
}

// SpecLimits are the externally supplied specification limits.
type SpecLimits struct {
	USL float64 `json:"usl"`
	LSL float64 `json:"lsl"`
}

// Target is the midpoint between the limits.
func (s SpecLimits) Target() float64 {
	return (s.USL + s.LSL) / 2
}

// CapabilityIndices are the capability results, rounded to 4 decimals.
type CapabilityIndices struct {
	Cp    float64 `json:"cp"`
	Cpk   float64 `json:"cpk"`
	Cpm   float64 `json:"cpm"`
	Cpu   float64 `json:"cpu"`
	Cpl   float64 `json:"cpl"`
	Mean  float64 `json:"mean"`
	Sigma float64 `json:"sigma"`
}

// OutOfControlFlags is the detector result for one series.
type OutOfControlFlags struct {
	Flags   []bool `json:"flags"`
	Indices []int  `json:"indices"`
	Count   int    `json:"count"`
}
