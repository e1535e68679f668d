package benchmark

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"salespipe/pkg/contracts/domain"
)

// Stats summarizes one metric across the successful runs of an
// implementation.
type Stats struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	StdDev float64
}

// Compute derives summary statistics from raw samples. A single sample
// has zero standard deviation; an empty input yields zero stats.
func Compute(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Stats{
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}

func durations(runs []domain.RunResult) []float64 {
	values := make([]float64, len(runs))
	for i, run := range runs {
		values[i] = run.Duration
	}
	return values
}

func memories(runs []domain.RunResult) []float64 {
	values := make([]float64, len(runs))
	for i, run := range runs {
		values[i] = run.MemoryMB
	}
	return values
}
