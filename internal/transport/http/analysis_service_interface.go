package http

import (
	"context"

	"spcpulse/internal/services"
	"spcpulse/internal/spc"
)

// AnalysisServiceInterface defines the SPC operations exposed over HTTP
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, req services.AnalysisRequest) (*services.AnalysisResult, error)
	ComputeLimits(ctx context.Context, subgroups [][]float64, chart spc.ChartType) (*services.LimitsResult, error)
	ComputeCapability(ctx context.Context, subgroups [][]float64, spec spc.SpecLimits, chart spc.ChartType) (*services.CapabilityResult, error)
	Detect(ctx context.Context, series []float64, limits spc.LimitTriple) spc.OutOfControlFlags
	Constants(n int) (spc.ConstantsRow, error)
	ConstantsTable() []spc.ConstantsRow
	Summarize(ctx context.Context, subgroups [][]float64) (*services.SummaryResult, error)
	Lookup(ctx context.Context, id string) (*services.AnalysisResult, error)
}
