package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Source identifies the wholesale aggregator an offer came from.
type Source string

const (
	SourceMobiMatter Source = "mobimatter"
	SourceAiralo     Source = "airalo"
)

// UnlimitedData is the DataMB sentinel for plans without a data cap.
const UnlimitedData = -1

// Product is the customer-facing catalog entry. SKU is the stable join key
// back to the wholesale offer and is referenced by orders, so rows are never
// deleted, only deactivated.
type Product struct {
	ID                int             `db:"id" json:"-"`
	SKU               string          `db:"sku" json:"sku"`
	Name              string          `db:"name" json:"name"`
	Provider          string          `db:"provider" json:"provider"`
	Source            Source          `db:"source" json:"source"`
	Countries         pq.StringArray  `db:"countries" json:"countries"`
	DataMB            int             `db:"data_mb" json:"dataMb"`
	ValidityDays      int             `db:"validity_days" json:"validityDays"`
	RetailPrice       decimal.Decimal `db:"retail_price" json:"price"`
	RetailCurrency    string          `db:"retail_currency" json:"currency"`
	WholesalePrice    decimal.Decimal `db:"wholesale_price" json:"-"`
	WholesaleCurrency string          `db:"wholesale_currency" json:"-"`
	IsActive          bool            `db:"is_active" json:"isActive"`
	IsFeatured        bool            `db:"is_featured" json:"isFeatured"`
	LastSyncedAt      time.Time       `db:"last_synced_at" json:"lastSyncedAt"`
	LastSyncRunID     *string         `db:"last_sync_run_id" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"-"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`
}

// IsUnlimited reports whether the plan has no data cap.
func (p *Product) IsUnlimited() bool {
	return p.DataMB == UnlimitedData
}
