// Package files provides file system discovery utilities for the sales
// data pipeline.
//
// Discovery enumerates the input files of a pipeline run. Enumeration is
// non-recursive and always returns files sorted by name, because input
// order feeds the pipeline's row-count diagnostics and must not depend on
// filesystem iteration order.
//
// Example usage:
//
//	// Create a discovery instance
//	discovery := files.NewDiscovery("/path/to/base")
//
//	// Find the CSV inputs of a run
//	inputs, err := discovery.FindInputFiles("data", ".csv")
package files
