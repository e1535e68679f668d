package pipeline

import (
	"context"
	"fmt"
	"io"

	"salespipe/internal/files"
	"salespipe/internal/metrics"
	"salespipe/pkg/contracts/domain"
)

// Stage is one step of the pipeline. Stages are executed strictly in
// sequence by the Runner and communicate through the shared RunState.
type Stage interface {
	// ID is the short identifier used in error types, log fields and
	// trace span names, e.g. "load".
	ID() string

	// Name is the human-readable stage name, e.g. "Load CSV files".
	Name() string

	// Execute runs the stage against the shared state. A returned
	// error aborts the pipeline.
	Execute(ctx context.Context, state *RunState) error
}

// RunState is the data flowing through one pipeline run. Each stage
// reads the fields written by its predecessors and fills in its own.
type RunState struct {
	// Files is the discovered input set, in deterministic name order.
	Files []files.FileInfo

	// Dataset holds every loaded row. The Cleaner replaces it with the
	// filtered copy; the Transformer mutates its records in place.
	Dataset *domain.Dataset

	// CleanStats describes what the Cleaner removed.
	CleanStats CleanStats

	// Aggregates is the final product summary in output order.
	Aggregates []domain.AggregateRecord

	// OutputSizeMB is the size of the written results file.
	OutputSizeMB float64

	// Metrics is sampled by stages after memory-intensive steps.
	Metrics *metrics.Collector

	// Progress receives the human-readable progress lines. The
	// benchmark harness parses this output, so stages must print
	// their lines verbatim.
	Progress io.Writer
}

// printf writes one progress line to the run's progress writer.
func (s *RunState) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.Progress, format, args...)
}

// sample records a memory reading if a collector is attached. Stages
// call it after loading or materializing data so the reported peak
// covers the whole run.
func (s *RunState) sample() {
	if s.Metrics != nil {
		s.Metrics.Sample()
	}
}

// CleanStats summarizes one Cleaner pass. Removed counts each dropped
// row exactly once, under the first filter that rejected it.
type CleanStats struct {
	RowsBefore     int
	RowsAfter      int
	Removed        int
	RemovedPercent float64

	MissingFields       int
	NonPositiveQuantity int
	NonPositivePrice    int
	BadDates            int
}
