package dataprocessing

import (
	"math/rand"
	"time"

	"spcpulse/internal/spc"
)

// Shape and range of the demo dataset.
const (
	SimulatedSubgroups    = 10
	SimulatedSubgroupSize = 5
	SimulatedMin          = 49.0
	SimulatedMax          = 51.0
	simulatedDecimals     = 2
)

// Simulate returns a demo dataset of SimulatedSubgroups subgroups of
// SimulatedSubgroupSize values drawn uniformly from [SimulatedMin,
// SimulatedMax] and rounded to two decimals. A nil rng uses a time-seeded
// source.
func Simulate(rng *rand.Rand) [][]float64 {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	rows := make([][]float64, SimulatedSubgroups)
	for i := range rows {
		row := make([]float64, SimulatedSubgroupSize)
		for j := range row {
			row[j] = spc.Round(SimulatedMin+rng.Float64()*(SimulatedMax-SimulatedMin), simulatedDecimals)
		}
		rows[i] = row
	}
	return rows
}
