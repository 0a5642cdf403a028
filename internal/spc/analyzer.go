package spc

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Analyzer defaults.
const (
	DefaultConcurrencyThreshold = 1000
	DefaultWorkers              = 4
	DefaultAnalysisTimeout      = 30 * time.Second
)

// AnalyzeOptions selects the chart and optional specification limits.
type AnalyzeOptions struct {
	Chart ChartType
	// Spec is nil when capability should be skipped.
	Spec *SpecLimits
}

// Violations holds detector results for the three plotted series.
type Violations struct {
	Means  OutOfControlFlags `json:"means"`
	Ranges OutOfControlFlags `json:"ranges"`
	Stds   OutOfControlFlags `json:"stds"`
	Total  int               `json:"total"`
}

// CapabilityRating rates Cp and Cpk.
type CapabilityRating struct {
	Cp  Rating `json:"cp"`
	Cpk Rating `json:"cpk"`
}

// Analysis is the full result of one pipeline run. All numeric fields are
// rounded for output.
type Analysis struct {
	Chart            ChartType          `json:"chart_type"`
	RecommendedChart ChartType          `json:"recommended_chart_type"`
	Constants        ConstantsRow       `json:"constants"`
	Statistics       SubgroupStatistics `json:"statistics"`
	Limits           ControlLimits      `json:"limits"`
	Spec             *SpecLimits        `json:"spec_limits,omitempty"`
	Capability       *CapabilityIndices `json:"capability,omitempty"`
	Rating           *CapabilityRating  `json:"rating,omitempty"`
	Violations       Violations         `json:"violations"`
	Summary          Summary            `json:"summary"`
	SuggestedSpec    SpecLimits         `json:"suggested_spec_limits"`
}

// MeanLimits returns the mean-chart triple for the analysis chart type.
func (a *Analysis) MeanLimits() LimitTriple {
	mean, _, _ := a.Limits.ForChart(a.Chart)
	return mean
}

// Analyzer runs statistics, limits, capability and detection in one pass.
type Analyzer struct {
	logger *slog.Logger

	concurrencyThreshold int
	workers              int
	timeout              time.Duration
}

// NewAnalyzer creates an analyzer with default configuration
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		logger:               logger.With("component", "spc_analyzer"),
		concurrencyThreshold: DefaultConcurrencyThreshold,
		workers:              DefaultWorkers,
		timeout:              DefaultAnalysisTimeout,
	}
}

// SetConfiguration sets the subgroup count at which statistics are computed
// concurrently, the worker limit and the per-analysis timeout. Non-positive
// values keep the current setting.
func (a *Analyzer) SetConfiguration(concurrencyThreshold, workers int, timeout time.Duration) {
	if concurrencyThreshold > 0 {
		a.concurrencyThreshold = concurrencyThreshold
	}
	if workers > 0 {
		a.workers = workers
	}
	if timeout > 0 {
		a.timeout = timeout
	}
}

// Analyze runs the full pipeline on ds. It fails fast on the first engine
// error and never returns a partial analysis.
func (a *Analyzer) Analyze(ctx context.Context, ds Dataset, opts AnalyzeOptions) (*Analysis, error) {
	start := time.Now()

	a.logger.InfoContext(ctx, "starting spc analysis",
		"chart_type", opts.Chart.String(),
		"subgroups", ds.NumSubgroups(),
		"subgroup_size", ds.SubgroupSize(),
		"spec_limits", opts.Spec != nil,
	)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.validateInputs(ds, opts); err != nil {
		a.logger.WarnContext(ctx, "analysis input rejected", "error", err)
		return nil, err
	}

	row, err := LookupConstants(ds.SubgroupSize())
	if err != nil {
		a.logger.WarnContext(ctx, "analysis input rejected", "error", err)
		return nil, err
	}

	stats, err := a.statistics(ctx, ds)
	if err != nil {
		a.logger.ErrorContext(ctx, "statistics pass failed", "error", err)
		return nil, err
	}

	limits, err := LimitsFromStatistics(stats, ds.SubgroupSize())
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		Chart:            opts.Chart,
		RecommendedChart: RecommendChart(ds.SubgroupSize()),
		Constants:        row,
		Statistics:       stats.Rounded(),
		Limits:           limits,
	}

	if opts.Spec != nil {
		spec := *opts.Spec
		idx, err := CapabilityFromStatistics(stats, ds.Flatten(), ds.SubgroupSize(), spec, opts.Chart)
		if err != nil {
			a.logger.WarnContext(ctx, "capability computation failed", "error", err)
			return nil, err
		}
		analysis.Spec = &spec
		analysis.Capability = &idx
		analysis.Rating = &CapabilityRating{Cp: RateIndex(idx.Cp), Cpk: RateIndex(idx.Cpk)}
	}

	analysis.Violations = detectAll(analysis)

	if analysis.Summary, err = Summarize(ds); err != nil {
		return nil, err
	}
	if analysis.SuggestedSpec, err = SuggestSpecLimits(ds); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis aborted: %w", err)
	}

	a.logger.InfoContext(ctx, "spc analysis completed",
		"duration", time.Since(start),
		"out_of_control", analysis.Violations.Total,
	)
	return analysis, nil
}

func (a *Analyzer) validateInputs(ds Dataset, opts AnalyzeOptions) error {
	if err := ds.validate(); err != nil {
		return err
	}
	if !opts.Chart.Valid() {
		return newError(KindInvalidChartType, "chart_type", "unknown chart type", int(opts.Chart))
	}
	if opts.Spec != nil {
		if err := ValidateSpecLimits(*opts.Spec); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) statistics(ctx context.Context, ds Dataset) (SubgroupStatistics, error) {
	if ds.NumSubgroups() < a.concurrencyThreshold {
		return ComputeStatistics(ds), nil
	}
	a.logger.DebugContext(ctx, "computing statistics concurrently",
		"subgroups", ds.NumSubgroups(),
		"workers", a.workers,
	)
	return ComputeStatisticsConcurrent(ctx, ds, a.workers)
}

// detectAll compares the rounded series with the rounded limits so that a
// point drawn on a limit line is never reported as a violation.
func detectAll(a *Analysis) Violations {
	v := Violations{
		Means:  DetectOutOfControl(a.Statistics.Means, a.MeanLimits()),
		Ranges: DetectOutOfControl(a.Statistics.Ranges, a.Limits.R),
		Stds:   DetectOutOfControl(a.Statistics.Stds, a.Limits.S),
	}
	v.Total = v.Means.Count + v.Ranges.Count + v.Stds.Count
	return v
}
