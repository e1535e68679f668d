package domain

import (
	"fmt"
	"strconv"
)

// AggregateHeader is the fixed output column order for aggregated results.
// Consumers diff output files across pipeline implementations, so neither
// the names nor the order may change.
var AggregateHeader = []string{"product_id", "total_quantity", "total_revenue", "avg_price"}

// AggregateRecord represents one per-product summary row in the final
// output. TotalQuantity and TotalRevenue are sums over the product's
// cleaned records; AvgPrice is the arithmetic mean of the product's unit
// prices, not weighted by quantity.
type AggregateRecord struct {
	ProductID     string  `json:"product_id" csv:"product_id" validate:"required"`
	TotalQuantity int64   `json:"total_quantity" csv:"total_quantity" validate:"min=0"`
	TotalRevenue  float64 `json:"total_revenue" csv:"total_revenue" validate:"min=0"`
	AvgPrice      float64 `json:"avg_price" csv:"avg_price" validate:"min=0"`
}

// CSVRow renders the record in output column order. Monetary values use
// exactly two decimal places so repeated runs over the same input produce
// byte-identical files.
func (a *AggregateRecord) CSVRow() []string {
	return []string{
		a.ProductID,
		strconv.FormatInt(a.TotalQuantity, 10),
		fmt.Sprintf("%.2f", a.TotalRevenue),
		fmt.Sprintf("%.2f", a.AvgPrice),
	}
}
