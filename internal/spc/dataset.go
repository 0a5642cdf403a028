package spc

import (
	"fmt"
	"math"
)

// Minimum number of subgroups a dataset must contain.
const MinSubgroups = 2

// Dataset is a validated rectangular matrix of observations. Rows are
// subgroups, columns are observations. Build one with NewDataset; the zero
// value is empty and rejected by every calculator.
type Dataset struct {
	subgroups [][]float64
}

// NewDataset validates rows and returns an immutable copy of them.
func NewDataset(rows [][]float64) (Dataset, error) {
	if err := ValidateRows(rows); err != nil {
		return Dataset{}, err
	}

	copied := make([][]float64, len(rows))
	for i, row := range rows {
		copied[i] = append([]float64(nil), row...)
	}
	return Dataset{subgroups: copied}, nil
}

// ValidateRows checks the dataset invariants without copying.
func ValidateRows(rows [][]float64) error {
	if len(rows) == 0 {
		return newError(KindInvalidDataset, "subgroups", "dataset is empty", 0)
	}
	if len(rows) < MinSubgroups {
		return newError(KindInvalidDataset, "subgroups",
			fmt.Sprintf("at least %d subgroups are required, got %d", MinSubgroups, len(rows)), len(rows))
	}

	n := len(rows[0])
	for i, row := range rows {
		if len(row) < MinSubgroupSize {
			return newError(KindInvalidDataset, fmt.Sprintf("subgroups[%d]", i),
				fmt.Sprintf("subgroup needs at least %d observations, got %d", MinSubgroupSize, len(row)), len(row))
		}
		if len(row) != n {
			return newError(KindInvalidDataset, fmt.Sprintf("subgroups[%d]", i),
				fmt.Sprintf("inconsistent subgroup length: expected %d, got %d", n, len(row)), len(row))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return newError(KindInvalidDataset, fmt.Sprintf("subgroups[%d][%d]", i, j), "observation is not finite", v)
			}
		}
	}
	return nil
}

// NumSubgroups returns the number of subgroups.
func (d Dataset) NumSubgroups() int {
	return len(d.subgroups)
}

// SubgroupSize returns n, the common subgroup length.
func (d Dataset) SubgroupSize() int {
	if len(d.subgroups) == 0 {
		return 0
	}
	return len(d.subgroups[0])
}

// Observations returns the total number of observations.
func (d Dataset) Observations() int {
	return d.NumSubgroups() * d.SubgroupSize()
}

// Subgroup returns a copy of subgroup i.
func (d Dataset) Subgroup(i int) []float64 {
	return append([]float64(nil), d.subgroups[i]...)
}

// Rows returns a deep copy of the matrix.
func (d Dataset) Rows() [][]float64 {
	rows := make([][]float64, len(d.subgroups))
	for i, row := range d.subgroups {
		rows[i] = append([]float64(nil), row...)
	}
	return rows
}

// Flatten returns every observation in row-major order.
func (d Dataset) Flatten() []float64 {
	flat := make([]float64, 0, d.Observations())
	for _, row := range d.subgroups {
		flat = append(flat, row...)
	}
	return flat
}

func (d Dataset) validate() error {
	if len(d.subgroups) == 0 {
		return newError(KindInvalidDataset, "subgroups", "dataset is empty", 0)
	}
	return nil
}
