package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespipe/pkg/contracts/domain"
)

// transformedRecord builds a post-transform record: revenue already
// derived from quantity and price.
func transformedRecord(productID string, quantity int64, price float64) domain.Record {
	return domain.Record{
		ProductID: productID,
		Quantity:  int64Ptr(quantity),
		Price:     float64Ptr(price),
		Revenue:   float64(quantity) * price,
	}
}

func TestAggregatorGroupsByProduct(t *testing.T) {
	aggregator := NewAggregator(testLogger())
	state := newTestState()
	state.Dataset = &domain.Dataset{
		Records: []domain.Record{
			transformedRecord("PROD_00001", 2, 10.0),
			transformedRecord("PROD_00001", 3, 20.0),
			transformedRecord("PROD_00002", 1, 5.0),
		},
	}

	require.NoError(t, aggregator.Execute(context.Background(), state))
	require.Len(t, state.Aggregates, 2)

	first := state.Aggregates[0]
	assert.Equal(t, "PROD_00001", first.ProductID)
	assert.Equal(t, int64(5), first.TotalQuantity)
	assert.InDelta(t, 80.0, first.TotalRevenue, 0.0001)
	assert.InDelta(t, 15.0, first.AvgPrice, 0.0001, "mean of unit prices, not weighted by quantity")

	second := state.Aggregates[1]
	assert.Equal(t, "PROD_00002", second.ProductID)
	assert.Equal(t, int64(1), second.TotalQuantity)
	assert.InDelta(t, 5.0, second.TotalRevenue, 0.0001)
	assert.InDelta(t, 5.0, second.AvgPrice, 0.0001)
}

func TestAggregatorSortsByRevenueDescending(t *testing.T) {
	aggregator := NewAggregator(testLogger())
	state := newTestState()
	state.Dataset = &domain.Dataset{
		Records: []domain.Record{
			transformedRecord("PROD_00003", 1, 10.0),
			transformedRecord("PROD_00001", 1, 30.0),
			transformedRecord("PROD_00002", 1, 20.0),
		},
	}

	require.NoError(t, aggregator.Execute(context.Background(), state))
	require.Len(t, state.Aggregates, 3)

	assert.Equal(t, "PROD_00001", state.Aggregates[0].ProductID)
	assert.Equal(t, "PROD_00002", state.Aggregates[1].ProductID)
	assert.Equal(t, "PROD_00003", state.Aggregates[2].ProductID)
}

func TestAggregatorBreaksTiesByProductID(t *testing.T) {
	aggregator := NewAggregator(testLogger())
	state := newTestState()
	state.Dataset = &domain.Dataset{
		Records: []domain.Record{
			transformedRecord("PROD_00009", 1, 50.0),
			transformedRecord("PROD_00001", 1, 50.0),
			transformedRecord("PROD_00005", 1, 50.0),
		},
	}

	require.NoError(t, aggregator.Execute(context.Background(), state))
	require.Len(t, state.Aggregates, 3)

	assert.Equal(t, "PROD_00001", state.Aggregates[0].ProductID)
	assert.Equal(t, "PROD_00005", state.Aggregates[1].ProductID)
	assert.Equal(t, "PROD_00009", state.Aggregates[2].ProductID)
}

func TestAggregatorEmptyDataset(t *testing.T) {
	aggregator := NewAggregator(testLogger())
	state := newTestState()
	state.Dataset = &domain.Dataset{}

	require.NoError(t, aggregator.Execute(context.Background(), state))
	assert.Empty(t, state.Aggregates)
}

func TestAggregatorDeterministicOrder(t *testing.T) {
	// Map iteration order must never leak into the output.
	records := []domain.Record{
		transformedRecord("PROD_00002", 1, 25.0),
		transformedRecord("PROD_00004", 1, 25.0),
		transformedRecord("PROD_00001", 1, 25.0),
		transformedRecord("PROD_00003", 1, 25.0),
	}

	var previous []string
	for i := 0; i < 5; i++ {
		aggregator := NewAggregator(testLogger())
		state := newTestState()
		state.Dataset = &domain.Dataset{Records: records}
		require.NoError(t, aggregator.Execute(context.Background(), state))

		var order []string
		for _, agg := range state.Aggregates {
			order = append(order, agg.ProductID)
		}
		if previous != nil {
			assert.Equal(t, previous, order)
		}
		previous = order
	}
}
