package api

// ConstantsTableResponse lists every supported constants row.
type ConstantsTableResponse struct {
	MinSubgroupSize int         `json:"min_subgroup_size"`
	MaxSubgroupSize int         `json:"max_subgroup_size"`
	Rows            interface{} `json:"rows"`
}

// SimulateResponse carries a generated demo dataset and, when requested, its
// analysis.
type SimulateResponse struct {
	Subgroups [][]float64 `json:"subgroups"`
	Seed      *int64      `json:"seed,omitempty"`
	Analysis  interface{} `json:"analysis,omitempty"`
}

// DetectResponse is the detector result for one series.
type DetectResponse struct {
	Flags   []bool `json:"flags"`
	Indices []int  `json:"indices"`
	Count   int    `json:"count"`
}
