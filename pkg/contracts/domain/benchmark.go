package domain

import (
	"time"
)

// RunResult records one pipeline invocation made by the benchmark harness.
// The JSON keys are a persisted contract shared with the tooling of the
// other pipeline implementations; renaming them breaks cross-tool
// comparison of result documents.
type RunResult struct {
	// Duration is the wall-clock run time in seconds as measured by the
	// harness around the subprocess, not the pipeline's own reading.
	Duration float64 `json:"duration"`

	// MemoryMB is the peak memory the pipeline reported on stdout.
	MemoryMB float64 `json:"memory_mb"`

	// Success is false when the process failed or its output carried no
	// parseable memory line. Failed runs are excluded from statistics.
	Success bool `json:"success"`
}

// ResultsDocument is the persisted outcome of one benchmark session. The
// timestamp/data_dir/runs/results nesting mirrors the documents written by
// the reference tooling so sessions remain comparable across
// implementations; BenchmarkID is additive and identifies this session in
// logs.
type ResultsDocument struct {
	BenchmarkID string                 `json:"benchmark_id"`
	Timestamp   string                 `json:"timestamp"`
	DataDir     string                 `json:"data_dir"`
	Runs        int                    `json:"runs"`
	Results     map[string][]RunResult `json:"results"`
}

// NewResultsDocument returns a document stamped with the current time for
// the given session parameters.
func NewResultsDocument(benchmarkID, dataDir string, runs int) *ResultsDocument {
	return &ResultsDocument{
		BenchmarkID: benchmarkID,
		Timestamp:   time.Now().Format(time.RFC3339),
		DataDir:     dataDir,
		Runs:        runs,
		Results:     make(map[string][]RunResult),
	}
}

// Append records one run under the named implementation.
func (d *ResultsDocument) Append(implementation string, result RunResult) {
	d.Results[implementation] = append(d.Results[implementation], result)
}

// Successful returns the subset of an implementation's runs that completed
// and produced a parseable memory reading.
func (d *ResultsDocument) Successful(implementation string) []RunResult {
	var ok []RunResult
	for _, r := range d.Results[implementation] {
		if r.Success {
			ok = append(ok, r)
		}
	}
	return ok
}
