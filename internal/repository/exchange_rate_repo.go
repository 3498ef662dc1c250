package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/esim_api/internal/models"
)

// ExchangeRateRepository handles operator-maintained exchange rates.
type ExchangeRateRepository struct {
	db *sqlx.DB
}

// NewExchangeRateRepository creates a new ExchangeRateRepository.
func NewExchangeRateRepository(db *sqlx.DB) *ExchangeRateRepository {
	return &ExchangeRateRepository{db: db}
}

// GetByCurrency returns sql.ErrNoRows when no rate is stored.
func (r *ExchangeRateRepository) GetByCurrency(ctx context.Context, currency string) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.GetContext(ctx, &rate, `SELECT currency, rate_to_retail, updated_at FROM exchange_rates WHERE currency = $1`, currency)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *ExchangeRateRepository) Upsert(ctx context.Context, currency string, rate decimal.Decimal) (*models.ExchangeRate, error) {
	const q = `
		INSERT INTO exchange_rates (currency, rate_to_retail, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (currency) DO UPDATE SET rate_to_retail = EXCLUDED.rate_to_retail, updated_at = NOW()
		RETURNING currency, rate_to_retail, updated_at`

	var out models.ExchangeRate
	if err := r.db.QueryRowxContext(ctx, q, currency, rate).StructScan(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ExchangeRateRepository) List(ctx context.Context) ([]models.ExchangeRate, error) {
	rates := []models.ExchangeRate{}
	err := r.db.SelectContext(ctx, &rates, `SELECT currency, rate_to_retail, updated_at FROM exchange_rates ORDER BY currency`)
	return rates, err
}
