package domain

import (
	"time"
)

// Record represents one sales transaction row as loaded from an input CSV
// file. Required numeric fields are pointers so a missing or unconvertible
// cell is distinguishable from a legitimate zero; the cleaning stage drops
// records with nil required fields before any downstream stage sees them.
type Record struct {
	// DateText is the raw date cell, empty when the source has no date
	// column. Parsing happens during cleaning, not loading, so the count
	// of rows dropped for bad dates is reported by the cleaning stage.
	DateText string `json:"date_text,omitempty"`

	// Date is the parsed transaction date. Nil until the cleaning stage
	// parses DateText; nil afterwards only when the dataset has no date
	// column at all.
	Date *time.Time `json:"date,omitempty"`

	ProductID string   `json:"product_id"`
	Quantity  *int64   `json:"quantity"`
	Price     *float64 `json:"price"`

	// Pass-through attributes, never validated.
	CustomerID string `json:"customer_id,omitempty"`
	Region     string `json:"region,omitempty"`
	Category   string `json:"category,omitempty"`

	// Derived fields populated by the transform stage.
	Revenue float64 `json:"revenue,omitempty"`
	Year    int     `json:"year,omitempty"`
	Month   int     `json:"month,omitempty"`
	Quarter int     `json:"quarter,omitempty"`
}

// HasRequiredFields reports whether product_id, quantity and price are all
// present on the record.
func (r *Record) HasRequiredFields() bool {
	return r.ProductID != "" && r.Quantity != nil && r.Price != nil
}

// Dataset is the full in-memory collection of records at a given pipeline
// stage. HasDate is a directory-level property established once at load
// time: either every input file carries a date column or none does.
type Dataset struct {
	Records []Record `json:"records"`
	HasDate bool     `json:"has_date"`
}

// Len returns the number of records currently in the dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}
