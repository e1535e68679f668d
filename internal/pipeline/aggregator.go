package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"salespipe/pkg/contracts/domain"
)

// Aggregator groups the transformed records by product and produces
// the final summary: total quantity, total revenue and the unweighted
// mean unit price per product, ordered by total revenue descending.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates the aggregate stage.
func NewAggregator(logger *slog.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

func (a *Aggregator) ID() string   { return "aggregate" }
func (a *Aggregator) Name() string { return "Aggregate data" }

// productAccumulator collects the running totals for one product.
type productAccumulator struct {
	quantity int64
	revenue  float64
	priceSum float64
	count    int64
}

// Execute fills state.Aggregates. Ties on total revenue are broken by
// product id ascending so the output order is deterministic.
func (a *Aggregator) Execute(ctx context.Context, state *RunState) error {
	state.printf("\nAggregating data...\n")

	groups := make(map[string]*productAccumulator)
	for i := range state.Dataset.Records {
		record := &state.Dataset.Records[i]
		acc, exists := groups[record.ProductID]
		if !exists {
			acc = &productAccumulator{}
			groups[record.ProductID] = acc
		}
		acc.quantity += *record.Quantity
		acc.revenue += record.Revenue
		acc.priceSum += *record.Price
		acc.count++
	}

	aggregates := make([]domain.AggregateRecord, 0, len(groups))
	for productID, acc := range groups {
		aggregates = append(aggregates, domain.AggregateRecord{
			ProductID:     productID,
			TotalQuantity: acc.quantity,
			TotalRevenue:  acc.revenue,
			AvgPrice:      acc.priceSum / float64(acc.count),
		})
	}

	sort.Slice(aggregates, func(i, j int) bool {
		if aggregates[i].TotalRevenue != aggregates[j].TotalRevenue {
			return aggregates[i].TotalRevenue > aggregates[j].TotalRevenue
		}
		return aggregates[i].ProductID < aggregates[j].ProductID
	})

	state.Aggregates = aggregates
	state.sample()

	state.printf("Aggregated to %d products\n", len(aggregates))
	a.logger.InfoContext(ctx, "aggregate complete",
		slog.Int("products", len(aggregates)),
		slog.Int("rows_in", state.Dataset.Len()))
	return nil
}
