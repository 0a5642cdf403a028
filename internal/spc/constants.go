package spc

import "fmt"

// Subgroup sizes covered by the factor table.
const (
	MinSubgroupSize = 2
	MaxSubgroupSize = 25
)

// ConstantsRow holds the control chart factors for one subgroup size.
type ConstantsRow struct {
	N  int     `json:"n"`
	A2 float64 `json:"a2"`
	D3 float64 `json:"d3"`
	D4 float64 `json:"d4"`
	A3 float64 `json:"a3"`
	B3 float64 `json:"b3"`
	B4 float64 `json:"b4"`
	D2 float64 `json:"d2"`
	C4 float64 `json:"c4"`
}

// Standard ASTM factors indexed by subgroup size minus MinSubgroupSize.
var constantsTable = [...]ConstantsRow{
	{N: 2, A2: 1.880, D3: 0, D4: 3.267, A3: 2.659, B3: 0, B4: 3.267, D2: 1.128, C4: 0.7979},
	{N: 3, A2: 1.023, D3: 0, D4: 2.574, A3: 1.954, B3: 0, B4: 2.568, D2: 1.693, C4: 0.8862},
	{N: 4, A2: 0.729, D3: 0, D4: 2.282, A3: 1.628, B3: 0, B4: 2.266, D2: 2.059, C4: 0.9213},
	{N: 5, A2: 0.577, D3: 0, D4: 2.114, A3: 1.427, B3: 0, B4: 2.089, D2: 2.326, C4: 0.9400},
	{N: 6, A2: 0.483, D3: 0, D4: 2.004, A3: 1.287, B3: 0.030, B4: 1.970, D2: 2.534, C4: 0.9515},
	{N: 7, A2: 0.419, D3: 0.076, D4: 1.924, A3: 1.182, B3: 0.118, B4: 1.882, D2: 2.704, C4: 0.9594},
	{N: 8, A2: 0.373, D3: 0.136, D4: 1.864, A3: 1.099, B3: 0.185, B4: 1.815, D2: 2.847, C4: 0.9650},
	{N: 9, A2: 0.337, D3: 0.184, D4: 1.816, A3: 1.032, B3: 0.239, B4: 1.761, D2: 2.970, C4: 0.9693},
	{N: 10, A2: 0.308, D3: 0.223, D4: 1.777, A3: 0.975, B3: 0.284, B4: 1.716, D2: 3.078, C4: 0.9727},
	{N: 11, A2: 0.285, D3: 0.256, D4: 1.744, A3: 0.927, B3: 0.321, B4: 1.679, D2: 3.173, C4: 0.9754},
	{N: 12, A2: 0.266, D3: 0.283, D4: 1.717, A3: 0.886, B3: 0.354, B4: 1.646, D2: 3.258, C4: 0.9776},
	{N: 13, A2: 0.249, D3: 0.307, D4: 1.693, A3: 0.850, B3: 0.382, B4: 1.618, D2: 3.336, C4: 0.9794},
	{N: 14, A2: 0.235, D3: 0.328, D4: 1.672, A3: 0.817, B3: 0.406, B4: 1.594, D2: 3.407, C4: 0.9810},
	{N: 15, A2: 0.223, D3: 0.347, D4: 1.653, A3: 0.789, B3: 0.428, B4: 1.572, D2: 3.472, C4: 0.9823},
	{N: 16, A2: 0.212, D3: 0.363, D4: 1.637, A3: 0.763, B3: 0.448, B4: 1.552, D2: 3.532, C4: 0.9835},
	{N: 17, A2: 0.203, D3: 0.378, D4: 1.622, A3: 0.739, B3: 0.466, B4: 1.534, D2: 3.588, C4: 0.9845},
	{N: 18, A2: 0.194, D3: 0.391, D4: 1.608, A3: 0.718, B3: 0.482, B4: 1.518, D2: 3.640, C4: 0.9854},
	{N: 19, A2: 0.187, D3: 0.403, D4: 1.597, A3: 0.698, B3: 0.497, B4: 1.503, D2: 3.689, C4: 0.9862},
	{N: 20, A2: 0.180, D3: 0.415, D4: 1.585, A3: 0.680, B3: 0.510, B4: 1.490, D2: 3.735, C4: 0.9869},
	{N: 21, A2: 0.173, D3: 0.425, D4: 1.575, A3: 0.663, B3: 0.523, B4: 1.477, D2: 3.778, C4: 0.9876},
	{N: 22, A2: 0.167, D3: 0.434, D4: 1.566, A3: 0.647, B3: 0.534, B4: 1.466, D2: 3.819, C4: 0.9882},
	{N: 23, A2: 0.162, D3: 0.443, D4: 1.557, A3: 0.633, B3: 0.545, B4: 1.455, D2: 3.858, C4: 0.9887},
	{N: 24, A2: 0.157, D3: 0.451, D4: 1.548, A3: 0.619, B3: 0.555, B4: 1.445, D2: 3.895, C4: 0.9892},
	{N: 25, A2: 0.153, D3: 0.459, D4: 1.541, A3: 0.606, B3: 0.565, B4: 1.435, D2: 3.931, C4: 0.9896},
}

// LookupConstants returns the factor row for subgroup size n.
func LookupConstants(n int) (ConstantsRow, error) {
	if n < MinSubgroupSize || n > MaxSubgroupSize {
		return ConstantsRow{}, &Error{
			Kind:    KindUnsupportedSubgroupSize,
			Field:   "n",
			Message: fmt.Sprintf("no control chart constants for subgroup size %d (supported %d..%d)", n, MinSubgroupSize, MaxSubgroupSize),
			Value:   n,
		}
	}
	return constantsTable[n-MinSubgroupSize], nil
}

// SupportedSubgroupSizes lists every subgroup size with a factor row.
func SupportedSubgroupSizes() []int {
	sizes := make([]int, 0, len(constantsTable))
	for _, row := range constantsTable {
		sizes = append(sizes, row.N)
	}
	return sizes
}
