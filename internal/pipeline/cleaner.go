package pipeline

import (
	"context"
	"log/slog"
	"time"

	"salespipe/pkg/contracts/domain"
)

// Cleaner removes rows that cannot participate in aggregation. The
// filters run in a fixed order and each removed row is counted once,
// under the first filter that rejected it:
//
//  1. missing product_id, quantity or price
//  2. quantity not strictly positive
//  3. price not strictly positive
//  4. date text that does not parse, when the dataset has a date column
//
// Surviving records are copied into a fresh slice; the loaded dataset
// is never modified in place.
type Cleaner struct {
	dateFormat string
	logger     *slog.Logger
}

// NewCleaner creates the clean stage. dateFormat is the Go reference
// layout used for strict date parsing, normally "2006-01-02".
func NewCleaner(dateFormat string, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		dateFormat: dateFormat,
		logger:     logger,
	}
}

func (c *Cleaner) ID() string   { return "clean" }
func (c *Cleaner) Name() string { return "Clean data" }

// Execute filters state.Dataset and replaces it with the cleaned copy,
// recording removal counts in state.CleanStats.
func (c *Cleaner) Execute(ctx context.Context, state *RunState) error {
	state.printf("\nCleaning data...\n")

	dataset := state.Dataset
	stats := CleanStats{RowsBefore: dataset.Len()}

	cleaned := make([]domain.Record, 0, dataset.Len())
	for _, record := range dataset.Records {
		if !record.HasRequiredFields() {
			stats.MissingFields++
			continue
		}
		if *record.Quantity <= 0 {
			stats.NonPositiveQuantity++
			continue
		}
		if *record.Price <= 0 {
			stats.NonPositivePrice++
			continue
		}
		if dataset.HasDate {
			parsed, err := time.Parse(c.dateFormat, record.DateText)
			if err != nil {
				stats.BadDates++
				continue
			}
			record.Date = &parsed
		}
		cleaned = append(cleaned, record)
	}

	stats.RowsAfter = len(cleaned)
	stats.Removed = stats.RowsBefore - stats.RowsAfter
	if stats.RowsBefore > 0 {
		stats.RemovedPercent = float64(stats.Removed) / float64(stats.RowsBefore) * 100
	}

	state.Dataset = &domain.Dataset{Records: cleaned, HasDate: dataset.HasDate}
	state.CleanStats = stats
	state.sample()

	state.printf("Removed %d invalid rows (%.2f%%)\n", stats.Removed, stats.RemovedPercent)
	state.printf("Remaining rows: %d\n", stats.RowsAfter)

	c.logger.InfoContext(ctx, "clean complete",
		slog.Int("rows_before", stats.RowsBefore),
		slog.Int("rows_after", stats.RowsAfter),
		slog.Int("missing_fields", stats.MissingFields),
		slog.Int("non_positive_quantity", stats.NonPositiveQuantity),
		slog.Int("non_positive_price", stats.NonPositivePrice),
		slog.Int("bad_dates", stats.BadDates))
	return nil
}
