package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"salespipe/internal/benchmark"
	"salespipe/internal/config"
	"salespipe/internal/infrastructure"
)

func main() {
	dataDir := flag.String("data", "", "data directory passed to each pipeline via {data_dir} (defaults to configured data_dir)")
	runs := flag.Int("runs", 0, "number of benchmark runs per implementation (defaults to configured runs)")
	resultsPath := flag.String("out", "", "path for the results JSON document (defaults to configured results_path)")
	configPath := flag.String("config", "", "path to a YAML config file (defaults to config.yaml discovery)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	// Flags override file and environment values.
	if *runs > 0 {
		cfg.Benchmark.Runs = *runs
	}
	if *resultsPath != "" {
		cfg.Benchmark.ResultsPath = *resultsPath
	}
	benchDataDir := cfg.Pipeline.DataDir
	if *dataDir != "" {
		benchDataDir = *dataDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Starting benchmark suite",
		slog.String("data_dir", benchDataDir),
		slog.Int("runs", cfg.Benchmark.Runs),
		slog.Int("implementations", len(cfg.Benchmark.Implementations)),
		slog.String("results_path", cfg.Benchmark.ResultsPath))

	runner := benchmark.NewRunner(cfg.Benchmark, benchDataDir, logger)
	doc, err := runner.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Benchmark failed: %v\n", err)
		logger.Error("Benchmark failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Benchmark complete",
		slog.String("benchmark_id", doc.BenchmarkID),
		slog.Int("implementations", len(doc.Results)),
		slog.String("results_path", cfg.Benchmark.ResultsPath))
}

// loadConfig loads configuration from an explicit path when given, falling
// back to the default config file discovery otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}
