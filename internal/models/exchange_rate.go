package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the number of retail currency units per one unit of Currency.
type ExchangeRate struct {
	Currency     string          `db:"currency" json:"currency"`
	RateToRetail decimal.Decimal `db:"rate_to_retail" json:"rateToRetail"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}
