package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"salespipe/pkg/contracts/domain"
)

// Writer saves the aggregated summary as a CSV file, creating the
// output directory if needed.
type Writer struct {
	outputPath string
	logger     *slog.Logger
}

// NewWriter creates the save stage writing to outputPath.
func NewWriter(outputPath string, logger *slog.Logger) *Writer {
	return &Writer{
		outputPath: outputPath,
		logger:     logger,
	}
}

func (w *Writer) ID() string   { return "save" }
func (w *Writer) Name() string { return "Save results" }

// Execute writes the header row and one row per aggregate, then
// records the written file size in state.OutputSizeMB.
func (w *Writer) Execute(ctx context.Context, state *RunState) error {
	state.printf("\nSaving results to %s...\n", w.outputPath)

	if err := os.MkdirAll(filepath.Dir(w.outputPath), 0755); err != nil {
		return NewIOError(w.ID(), "failed to create output directory", err)
	}

	file, err := os.Create(w.outputPath)
	if err != nil {
		return NewIOError(w.ID(), fmt.Sprintf("failed to create %s", w.outputPath), err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(domain.AggregateHeader); err != nil {
		return NewIOError(w.ID(), "failed to write header", err)
	}
	for i := range state.Aggregates {
		if err := writer.Write(state.Aggregates[i].CSVRow()); err != nil {
			return NewIOError(w.ID(), fmt.Sprintf("failed to write row %d", i), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return NewIOError(w.ID(), fmt.Sprintf("failed to flush %s", w.outputPath), err)
	}

	info, err := os.Stat(w.outputPath)
	if err != nil {
		return NewIOError(w.ID(), fmt.Sprintf("failed to stat %s", w.outputPath), err)
	}
	state.OutputSizeMB = float64(info.Size()) / 1024 / 1024
	state.sample()

	state.printf("Results saved (%.2f MB)\n", state.OutputSizeMB)
	w.logger.InfoContext(ctx, "save complete",
		slog.String("path", w.outputPath),
		slog.Int("rows", len(state.Aggregates)),
		slog.Float64("size_mb", state.OutputSizeMB))
	return nil
}
