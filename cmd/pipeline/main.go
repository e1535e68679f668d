package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/trace"

	"salespipe/internal/config"
	"salespipe/internal/infrastructure"
	"salespipe/internal/pipeline"
)

func main() {
	dataDir := flag.String("data", "", "input directory containing sales CSV files (defaults to configured data_dir)")
	outputPath := flag.String("output", "", "output CSV path for aggregated results (defaults to configured output_path)")
	configPath := flag.String("config", "", "path to a YAML config file (defaults to config.yaml discovery)")
	traceEnabled := flag.Bool("trace", false, "enable stage tracing")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	// Flags override file and environment values.
	if *dataDir != "" {
		cfg.Pipeline.DataDir = *dataDir
	}
	if *outputPath != "" {
		cfg.Pipeline.OutputPath = *outputPath
	}
	if *traceEnabled {
		cfg.Tracing.Enabled = true
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeTracing(cfg.Tracing, logger)
	if err != nil {
		logger.Warn("Failed to initialize tracing, continuing without spans",
			slog.String("error", err.Error()))
		providers = nil
	}
	var tracer trace.Tracer
	if providers != nil {
		tracer = providers.Tracer
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Starting sales pipeline",
		slog.String("data_dir", cfg.Pipeline.DataDir),
		slog.String("output_path", cfg.Pipeline.OutputPath),
		slog.Bool("parallel_load", cfg.Pipeline.ParallelLoad),
		slog.Bool("tracing", cfg.Tracing.Enabled))

	runner := pipeline.NewRunner(cfg.Pipeline, logger, tracer)
	state, runErr := runner.Run(ctx)

	if providers != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Tracing shutdown failed", slog.String("error", err.Error()))
		}
		cancel()
	}

	if runErr != nil {
		// Stdout is reserved for progress and summary lines, so failures
		// go to stderr for the operator and to the log for diagnosis.
		fmt.Fprintf(os.Stderr, "Pipeline failed: %v\n", runErr)
		logger.Error("Pipeline failed",
			slog.String("error", runErr.Error()),
			slog.String("error_type", string(pipeline.GetErrorType(runErr))))
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Pipeline complete",
		slog.Int("rows_loaded", state.CleanStats.RowsBefore),
		slog.Int("rows_cleaned", state.CleanStats.RowsAfter),
		slog.Int("products", len(state.Aggregates)),
		slog.Float64("output_size_mb", state.OutputSizeMB),
		slog.Float64("peak_memory_mb", state.Metrics.PeakMemoryMB()),
		slog.Duration("duration", state.Metrics.Duration()))
}

// loadConfig loads configuration from an explicit path when given, falling
// back to the default config file discovery otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}
