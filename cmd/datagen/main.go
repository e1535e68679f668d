package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"salespipe/internal/config"
	"salespipe/internal/generator"
	"salespipe/internal/infrastructure"
)

func main() {
	size := flag.String("size", "", "target dataset size, e.g. 500MB, 1GB or raw bytes (defaults to configured target_size)")
	files := flag.Int("files", -1, "number of CSV files to generate; 0 selects a count from the target size")
	outDir := flag.String("out", "", "directory to write generated files (defaults to configured output_dir)")
	seed := flag.Int64("seed", -1, "random seed for reproducible datasets; 0 seeds from the current time")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	// Flags override file and environment values. The sentinel -1 keeps the
	// configured value when a flag is not given, since 0 is meaningful for
	// both -files and -seed.
	if *size != "" {
		cfg.Generator.TargetSize = *size
	}
	if *files >= 0 {
		cfg.Generator.Files = *files
	}
	if *outDir != "" {
		cfg.Generator.OutputDir = *outDir
	}
	if *seed >= 0 {
		cfg.Generator.Seed = *seed
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Starting data generation",
		slog.String("target_size", cfg.Generator.TargetSize),
		slog.Int("files", cfg.Generator.Files),
		slog.String("output_dir", cfg.Generator.OutputDir),
		slog.Int64("seed", cfg.Generator.Seed))

	gen := generator.New(cfg.Generator, logger)
	summary, err := gen.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Data generation failed: %v\n", err)
		logger.Error("Data generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Data generation complete",
		slog.Int("files", summary.Files),
		slog.Int("rows_written", summary.RowsWritten),
		slog.Int64("total_bytes", summary.TotalBytes))
}
