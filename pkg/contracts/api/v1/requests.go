// Package api contains the request contracts of the SPC HTTP API.
// Version v1 represents the current stable API version.
//
// Validation tags cover request structure only. Dataset shape, subgroup size
// and spec limit ordering are reported by the engine with field paths, so
// they are not duplicated here.
package api

// SpecLimitsFields carries optional specification limits. Both or neither
// must be present.
type SpecLimitsFields struct {
	USL *float64 `json:"usl,omitempty" validate:"required_with=LSL,omitempty,finite"`
	LSL *float64 `json:"lsl,omitempty" validate:"required_with=USL,omitempty,finite"`
}

// HasSpec reports whether both limits were supplied.
func (s SpecLimitsFields) HasSpec() bool {
	return s.USL != nil && s.LSL != nil
}

// AnalyzeRequest runs the full pipeline on a subgroup matrix.
type AnalyzeRequest struct {
	Subgroups [][]float64 `json:"subgroups" validate:"required"`
	ChartType string      `json:"chart_type,omitempty" validate:"omitempty,chart"`
	SpecLimitsFields
}

// UploadOptions are the form fields accompanying a file upload.
type UploadOptions struct {
	ChartType string `json:"chart_type,omitempty" validate:"omitempty,chart"`
	Sheet     string `json:"sheet,omitempty" validate:"omitempty,max=31"`
	SpecLimitsFields
}

// LimitsRequest estimates control limits for one chart type.
type LimitsRequest struct {
	Subgroups [][]float64 `json:"subgroups" validate:"required"`
	ChartType string      `json:"chart_type,omitempty" validate:"omitempty,chart"`
}

// CapabilityRequest computes capability indices. Both limits are required.
type CapabilityRequest struct {
	Subgroups [][]float64 `json:"subgroups" validate:"required"`
	ChartType string      `json:"chart_type,omitempty" validate:"omitempty,chart"`
	USL       *float64    `json:"usl" validate:"required,finite"`
	LSL       *float64    `json:"lsl" validate:"required,finite"`
}

// DetectRequest flags points of a series outside a limit triple.
type DetectRequest struct {
	Series []float64 `json:"series" validate:"required"`
	UCL    *float64  `json:"ucl" validate:"required,finite"`
	LCL    *float64  `json:"lcl" validate:"required,finite"`
	CL     *float64  `json:"cl,omitempty" validate:"omitempty,finite"`
}

// SimulateQuery controls the demo dataset endpoint.
type SimulateQuery struct {
	Seed    *int64 `json:"seed,omitempty"`
	Analyze bool   `json:"analyze"`
}
