// Package pipeline implements the batch ETL pipeline that turns raw
// sales CSV files into a product-level revenue summary.
//
// # Architecture
//
// The pipeline is a fixed sequence of five stages executed by a Runner:
//
//	CSV Files → Loader → Cleaner → Transformer → Aggregator → Writer → Output CSV
//
// Each stage implements the Stage interface and operates on a shared
// RunState. All stages materialize their full input and output in
// memory; nothing is streamed. Peak memory therefore scales with the
// total input size, which is what the execution summary is designed to
// measure.
//
// # Usage
//
//	runner := pipeline.NewRunner(cfg, logger, tracer)
//	state, err := runner.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(state.Aggregates))
//
// # Error Handling
//
// Stages return *PipelineError values typed by failure class:
//
//   - ErrTypeConfig for unusable input (no files, missing required
//     columns, inconsistent date columns)
//   - ErrTypeIO for filesystem and CSV read/write failures
//   - ErrTypeExecution for everything else
//
// Unconvertible field values are not errors. They become missing
// values and are filtered by the Cleaner, mirroring how the row
// defects injected by the data generator are meant to be absorbed.
package pipeline
