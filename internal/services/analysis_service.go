package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"spcpulse/internal/config"
	"spcpulse/internal/infrastructure"
	"spcpulse/internal/spc"
)

// Engine runs the SPC pipeline. *spc.Analyzer satisfies it.
type Engine interface {
	Analyze(ctx context.Context, ds spc.Dataset, opts spc.AnalyzeOptions) (*spc.Analysis, error)
}

// AnalysisRequest is the service-level input of a full analysis.
type AnalysisRequest struct {
	Subgroups [][]float64
	// Chart falls back to the configured default when zero.
	Chart spc.ChartType
	Spec  *spc.SpecLimits
	// Source names where the data came from ("json", "upload:<file>", "simulated").
	Source string
}

// AnalysisResult wraps an analysis with its identity and service flags.
type AnalysisResult struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Source    string        `json:"source,omitempty"`
	Degraded  bool          `json:"degraded"`
	Cached    bool          `json:"cached"`
	Analysis  *spc.Analysis `json:"analysis"`
}

// LimitsResult holds control limits for one chart type.
type LimitsResult struct {
	Chart      spc.ChartType          `json:"chart_type"`
	Statistics spc.SubgroupStatistics `json:"statistics"`
	MeanChart  spc.LimitTriple        `json:"mean_chart"`
	Companion  spc.LimitTriple        `json:"companion_chart"`
}

// CapabilityResult holds capability indices with their ratings.
type CapabilityResult struct {
	Chart      spc.ChartType         `json:"chart_type"`
	Spec       spc.SpecLimits        `json:"spec_limits"`
	Capability spc.CapabilityIndices `json:"capability"`
	Rating     spc.CapabilityRating  `json:"rating"`
	Degraded   bool                  `json:"degraded"`
}

// SummaryResult describes a dataset without running the charts.
type SummaryResult struct {
	Summary          spc.Summary    `json:"summary"`
	SuggestedSpec    spc.SpecLimits `json:"suggested_spec_limits"`
	RecommendedChart spc.ChartType  `json:"recommended_chart_type"`
}

// AnalysisService orchestrates the engine, the result cache, degradation
// policy and SPC metrics.
type AnalysisService struct {
	engine       Engine
	cache        *ResultCache
	metrics      *infrastructure.SPCMetrics
	logger       *slog.Logger
	defaultChart spc.ChartType
	degrade      bool
	newID        func() string
	now          func() time.Time
}

// AnalysisServiceOption customizes an AnalysisService.
type AnalysisServiceOption func(*AnalysisService)

// WithCache enables result caching and ID lookup.
func WithCache(cache *ResultCache) AnalysisServiceOption {
	return func(s *AnalysisService) { s.cache = cache }
}

// WithMetrics records SPC metrics for every analysis.
func WithMetrics(metrics *infrastructure.SPCMetrics) AnalysisServiceOption {
	return func(s *AnalysisService) { s.metrics = metrics }
}

// WithEngine replaces the default analyzer.
func WithEngine(engine Engine) AnalysisServiceOption {
	return func(s *AnalysisService) { s.engine = engine }
}

// NewAnalysisService creates the service from the engine configuration.
func NewAnalysisService(cfg config.EngineConfig, logger *slog.Logger, opts ...AnalysisServiceOption) (*AnalysisService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	chart := spc.ChartXR
	if cfg.DefaultChart != "" {
		parsed, err := spc.ParseChartType(cfg.DefaultChart)
		if err != nil {
			return nil, fmt.Errorf("default chart: %w", err)
		}
		chart = parsed
	}

	analyzer := spc.NewAnalyzer(logger)
	analyzer.SetConfiguration(cfg.ConcurrencyThreshold, cfg.Workers, cfg.Timeout)

	s := &AnalysisService{
		engine:       analyzer,
		logger:       logger.With(slog.String("component", "analysis_service")),
		defaultChart: chart,
		degrade:      cfg.DegradeOnNoVariation,
		newID:        func() string { return uuid.New().String() },
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DefaultChart returns the chart used when a request names none.
func (s *AnalysisService) DefaultChart() spc.ChartType {
	return s.defaultChart
}

// Analyze runs the full pipeline. Identical inputs are served from cache.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	ds, err := spc.NewDataset(req.Subgroups)
	if err != nil {
		s.recordFailure(ctx, req.Chart, err)
		return nil, err
	}
	chart := s.chartOrDefault(req.Chart)

	infrastructure.SetSpanAttributes(ctx,
		attribute.String("spc.chart_type", chart.String()),
		attribute.Int("spc.subgroups", ds.NumSubgroups()),
		attribute.Int("spc.subgroup_size", ds.SubgroupSize()),
	)

	key := Fingerprint(ds, chart, req.Spec)
	if s.cache != nil {
		cached, hit := s.cache.Get(key)
		s.metrics.RecordCacheLookup(ctx, hit)
		if hit {
			s.logger.DebugContext(ctx, "analysis served from cache", slog.String("analysis_id", cached.ID))
			cached.Cached = true
			return cached, nil
		}
	}

	start := time.Now()
	analysis, degraded, err := s.run(ctx, ds, chart, req.Spec)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.recordFailure(ctx, chart, err)
		return nil, err
	}
	s.metrics.RecordAnalysis(ctx, chart.String(), ds.Observations(), time.Since(start), analysis.Violations.Total, "")

	result := &AnalysisResult{
		ID:        s.newID(),
		CreatedAt: s.now().UTC(),
		Source:    req.Source,
		Degraded:  degraded,
		Analysis:  analysis,
	}
	if s.cache != nil {
		s.cache.Set(key, result)
	}

	s.logger.InfoContext(ctx, "analysis stored",
		slog.String("analysis_id", result.ID),
		slog.String("chart_type", chart.String()),
		slog.Bool("degraded", degraded),
		slog.Int("out_of_control", analysis.Violations.Total),
	)
	return result, nil
}

// run applies the degradation policy around the engine.
func (s *AnalysisService) run(ctx context.Context, ds spc.Dataset, chart spc.ChartType, spec *spc.SpecLimits) (*spc.Analysis, bool, error) {
	opts := spc.AnalyzeOptions{Chart: chart, Spec: spec}
	analysis, err := s.engine.Analyze(ctx, ds, opts)
	if err == nil {
		return analysis, false, nil
	}
	if !s.degrade || spec == nil || !errors.Is(err, spc.ErrDegenerateVariation) {
		return nil, false, err
	}

	s.logger.WarnContext(ctx, "no variation in data, degrading capability",
		slog.String("chart_type", chart.String()),
		slog.String("error", err.Error()),
	)

	opts.Spec = nil
	analysis, err = s.engine.Analyze(ctx, ds, opts)
	if err != nil {
		return nil, false, err
	}

	limits := *spec
	idx := spc.DegradedCapability(ds)
	analysis.Spec = &limits
	analysis.Capability = &idx
	analysis.Rating = &spc.CapabilityRating{Cp: spc.RateIndex(idx.Cp), Cpk: spc.RateIndex(idx.Cpk)}
	s.metrics.RecordDegraded(ctx, chart.String())
	return analysis, true, nil
}

// ComputeLimits returns the limits of one chart type.
func (s *AnalysisService) ComputeLimits(ctx context.Context, subgroups [][]float64, chart spc.ChartType) (*LimitsResult, error) {
	ds, err := spc.NewDataset(subgroups)
	if err != nil {
		return nil, err
	}
	chart = s.chartOrDefault(chart)

	stats := spc.ComputeStatistics(ds)
	mean, companion, err := spc.EstimateChartLimits(stats, ds.SubgroupSize(), chart)
	if err != nil {
		s.logger.WarnContext(ctx, "limit estimation failed", slog.String("error", err.Error()))
		return nil, err
	}

	return &LimitsResult{
		Chart:      chart,
		Statistics: stats.Rounded(),
		MeanChart:  mean,
		Companion:  companion,
	}, nil
}

// ComputeCapability returns capability indices. Degenerate variation is
// degraded the same way Analyze degrades it.
func (s *AnalysisService) ComputeCapability(ctx context.Context, subgroups [][]float64, spec spc.SpecLimits, chart spc.ChartType) (*CapabilityResult, error) {
	ds, err := spc.NewDataset(subgroups)
	if err != nil {
		return nil, err
	}
	chart = s.chartOrDefault(chart)

	result := &CapabilityResult{Chart: chart, Spec: spec}
	idx, err := spc.ComputeCapability(ds, spec, chart)
	switch {
	case err == nil:
		result.Capability = idx
	case s.degrade && errors.Is(err, spc.ErrDegenerateVariation):
		s.logger.WarnContext(ctx, "no variation in data, degrading capability", slog.String("chart_type", chart.String()))
		s.metrics.RecordDegraded(ctx, chart.String())
		result.Capability = spc.DegradedCapability(ds)
		result.Degraded = true
	default:
		return nil, err
	}

	result.Rating = spc.CapabilityRating{
		Cp:  spc.RateIndex(result.Capability.Cp),
		Cpk: spc.RateIndex(result.Capability.Cpk),
	}
	return result, nil
}

// Detect flags points strictly outside the given limits.
func (s *AnalysisService) Detect(ctx context.Context, series []float64, limits spc.LimitTriple) spc.OutOfControlFlags {
	flags := spc.DetectOutOfControl(series, limits)
	s.logger.DebugContext(ctx, "detection completed",
		slog.Int("points", len(series)),
		slog.Int("out_of_control", flags.Count),
	)
	return flags
}

// Constants returns the constants row for subgroup size n.
func (s *AnalysisService) Constants(n int) (spc.ConstantsRow, error) {
	return spc.LookupConstants(n)
}

// ConstantsTable returns every supported constants row in ascending n.
func (s *AnalysisService) ConstantsTable() []spc.ConstantsRow {
	sizes := spc.SupportedSubgroupSizes()
	rows := make([]spc.ConstantsRow, 0, len(sizes))
	for _, n := range sizes {
		row, err := spc.LookupConstants(n)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// Summarize describes a dataset and suggests reference spec limits.
func (s *AnalysisService) Summarize(ctx context.Context, subgroups [][]float64) (*SummaryResult, error) {
	ds, err := spc.NewDataset(subgroups)
	if err != nil {
		return nil, err
	}
	summary, err := spc.Summarize(ds)
	if err != nil {
		return nil, err
	}
	suggested, err := spc.SuggestSpecLimits(ds)
	if err != nil {
		return nil, err
	}
	return &SummaryResult{
		Summary:          summary,
		SuggestedSpec:    suggested,
		RecommendedChart: spc.RecommendChart(ds.SubgroupSize()),
	}, nil
}

// Lookup returns a previously computed analysis by ID.
func (s *AnalysisService) Lookup(ctx context.Context, id string) (*AnalysisResult, error) {
	if s.cache == nil {
		return nil, fmt.Errorf("analysis %s: %w", id, ErrAnalysisNotFound)
	}
	result, ok := s.cache.GetByID(id)
	if !ok {
		s.logger.DebugContext(ctx, "analysis lookup missed", slog.String("analysis_id", id))
		return nil, fmt.Errorf("analysis %s: %w", id, ErrAnalysisNotFound)
	}
	return result, nil
}

func (s *AnalysisService) chartOrDefault(chart spc.ChartType) spc.ChartType {
	if chart == 0 {
		return s.defaultChart
	}
	return chart
}

func (s *AnalysisService) recordFailure(ctx context.Context, chart spc.ChartType, err error) {
	kind, ok := spc.KindOf(err)
	if !ok {
		kind = "INTERNAL"
	}
	s.metrics.RecordAnalysis(ctx, s.chartOrDefault(chart).String(), 0, 0, 0, string(kind))
	s.logger.WarnContext(ctx, "analysis failed",
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
}
