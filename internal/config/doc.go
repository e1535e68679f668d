// Package config provides centralized configuration management for the
// sales pipeline suite. It handles loading configuration from multiple
// sources, validation, and a type-safe API for the three binaries.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources, later sources
// overriding earlier ones:
//
//	1. Built-in defaults
//	2. YAML configuration file (config.yaml)
//	3. Environment variables
//	4. Command-line flags (applied by each binary)
//
// # Environment Variables
//
// All environment variables follow the pattern SALESPIPE_<SECTION>_<FIELD>:
//
//	SALESPIPE_PIPELINE_DATA_DIR=data
//	SALESPIPE_PIPELINE_OUTPUT_PATH=results/go_output.csv
//	SALESPIPE_BENCHMARK_RUNS=5
//	SALESPIPE_LOGGING_LEVEL=info
//	SALESPIPE_TRACING_ENABLED=true
//
// # Validation
//
// All configuration is validated at load time with struct-tag rules:
// required fields present, counts within range, enumerated values members
// of their sets. Benchmark implementations can only be declared in the
// YAML file; each needs a name and a non-empty command.
//
// # Usage
//
// Load configuration at binary startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
