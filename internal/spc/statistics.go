package spc

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// ComputeStatistics returns the mean, range and sample standard deviation of
// every subgroup, index-aligned with the dataset.
func ComputeStatistics(ds Dataset) SubgroupStatistics {
	stats := newStatistics(ds.NumSubgroups())
	for i, row := range ds.subgroups {
		stats.Means[i], stats.Ranges[i], stats.Stds[i] = summarizeSubgroup(row)
	}
	return stats
}

// ComputeStatisticsConcurrent computes the same result as ComputeStatistics
// using up to workers goroutines. Each goroutine writes only its own index,
// so output order matches input order. Cancelling ctx aborts the pass.
func ComputeStatisticsConcurrent(ctx context.Context, ds Dataset, workers int) (SubgroupStatistics, error) {
	if err := ds.validate(); err != nil {
		return SubgroupStatistics{}, err
	}
	if workers < 1 {
		workers = 1
	}

	stats := newStatistics(ds.NumSubgroups())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range ds.subgroups {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stats.Means[i], stats.Ranges[i], stats.Stds[i] = summarizeSubgroup(ds.subgroups[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return SubgroupStatistics{}, fmt.Errorf("compute statistics: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return SubgroupStatistics{}, fmt.Errorf("compute statistics: %w", err)
	}
	return stats, nil
}

func newStatistics(k int) SubgroupStatistics {
	return SubgroupStatistics{
		Means:  make([]float64, k),
		Ranges: make([]float64, k),
		Stds:   make([]float64, k),
	}
}

func summarizeSubgroup(row []float64) (mean, rng, std float64) {
	lo, hi := row[0], row[0]
	sum := 0.0
	for _, v := range row {
		sum += v
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	mean = sum / float64(len(row))

	ss := 0.0
	for _, v := range row {
		d := v - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(len(row)-1))
	return mean, hi - lo, std
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev uses the n-1 denominator.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := average(values)
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
