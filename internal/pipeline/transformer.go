package pipeline

import (
	"context"
	"log/slog"
)

// Transformer derives the computed columns on the cleaned dataset:
// revenue for every record, and year/month/quarter when the dataset
// carries dates. It runs after the Cleaner, so quantity, price and any
// parsed date are guaranteed present.
type Transformer struct {
	logger *slog.Logger
}

// NewTransformer creates the transform stage.
func NewTransformer(logger *slog.Logger) *Transformer {
	return &Transformer{logger: logger}
}

func (t *Transformer) ID() string   { return "transform" }
func (t *Transformer) Name() string { return "Transform data" }

// Execute mutates the cleaned records in place. The cleaned dataset is
// owned by the pipeline at this point, so in-place update is safe.
func (t *Transformer) Execute(ctx context.Context, state *RunState) error {
	state.printf("\nTransforming data...\n")

	dataset := state.Dataset
	for i := range dataset.Records {
		record := &dataset.Records[i]
		record.Revenue = float64(*record.Quantity) * *record.Price

		if dataset.HasDate && record.Date != nil {
			record.Year = record.Date.Year()
			record.Month = int(record.Date.Month())
			record.Quarter = (record.Month-1)/3 + 1
		}
	}
	state.sample()

	state.printf("Transformations complete\n")
	t.logger.InfoContext(ctx, "transform complete",
		slog.Int("rows", dataset.Len()),
		slog.Bool("date_columns", dataset.HasDate))
	return nil
}
