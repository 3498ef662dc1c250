package models

import "github.com/shopspring/decimal"

// WholesaleProduct is an offer as received from an aggregator, normalized to
// a common shape. It is re-fetched on every sync and never persisted as-is.
type WholesaleProduct struct {
	SKU          string
	Source       Source
	Provider     string
	Name         string
	Countries    []string
	DataMB       int
	ValidityDays int
	Price        decimal.Decimal
	Currency     string
}
