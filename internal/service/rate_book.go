package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/esim_api/internal/models"
)

// ExchangeRateLookup reads operator-maintained rates.
type ExchangeRateLookup interface {
	GetByCurrency(ctx context.Context, currency string) (*models.ExchangeRate, error)
}

// RateBook resolves exchange rates from the database first and the
// configured fallback second. Stale rates are accepted as-is.
type RateBook struct {
	retailCurrency string
	repo           ExchangeRateLookup
	fallback       map[string]decimal.Decimal
}

// NewRateBook builds a RateBook. repo may be nil.
func NewRateBook(retailCurrency string, repo ExchangeRateLookup, fallback map[string]float64) *RateBook {
	fb := make(map[string]decimal.Decimal, len(fallback))
	for cur, rate := range fallback {
		fb[strings.ToUpper(cur)] = decimal.NewFromFloat(rate)
	}
	return &RateBook{
		retailCurrency: strings.ToUpper(retailCurrency),
		repo:           repo,
		fallback:       fb,
	}
}

// Rate implements RateSource.
func (b *RateBook) Rate(ctx context.Context, currency string) (decimal.Decimal, bool) {
	currency = strings.ToUpper(currency)
	if currency == b.retailCurrency {
		return decimal.NewFromInt(1), true
	}
	if b.repo != nil {
		rate, err := b.repo.GetByCurrency(ctx, currency)
		switch {
		case err == nil && rate != nil && rate.RateToRetail.IsPositive():
			return rate.RateToRetail, true
		case err != nil && !isNotFound(err):
			log.Warn().Err(err).Str("currency", currency).Msg("Exchange rate lookup failed, using configured rate")
		}
	}
	rate, ok := b.fallback[currency]
	return rate, ok
}
