package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMarginPercent is applied when no margin is configured.
const DefaultMarginPercent = 25

var hundred = decimal.NewFromInt(100)

// RateSource resolves how many retail currency units one unit of currency is worth.
type RateSource interface {
	Rate(ctx context.Context, currency string) (decimal.Decimal, bool)
}

// PriceTransformer converts wholesale prices to retail prices.
type PriceTransformer struct {
	marginPercent  decimal.Decimal
	retailCurrency string
	rates          RateSource
}

// NewPriceTransformer builds a transformer with a margin in percent.
func NewPriceTransformer(marginPercent float64, retailCurrency string, rates RateSource) *PriceTransformer {
	return &PriceTransformer{
		marginPercent:  decimal.NewFromFloat(marginPercent),
		retailCurrency: strings.ToUpper(retailCurrency),
		rates:          rates,
	}
}

// RetailCurrency returns the currency all retail prices are expressed in.
func (t *PriceTransformer) RetailCurrency() string {
	return t.retailCurrency
}

// MarginPercent returns the configured margin.
func (t *PriceTransformer) MarginPercent() decimal.Decimal {
	return t.marginPercent
}

// Transform converts price in currency to a retail price using the
// configured margin. The exchange rate is looked up on every call.
func (t *PriceTransformer) Transform(ctx context.Context, price decimal.Decimal, currency string) (decimal.Decimal, error) {
	return t.TransformWithMargin(ctx, price, currency, t.marginPercent)
}

// TransformWithMargin is Transform with an explicit margin.
// retail = round(price * rate * (1 + margin/100), 2)
func (t *PriceTransformer) TransformWithMargin(ctx context.Context, price decimal.Decimal, currency string, marginPercent decimal.Decimal) (decimal.Decimal, error) {
	if marginPercent.IsNegative() {
		return decimal.Zero, &InvalidPriceError{Price: price, Currency: strings.ToUpper(currency), Reason: "margin must not be negative"}
	}
	converted, err := t.Convert(ctx, price, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return ApplyMargin(converted, marginPercent), nil
}

// Quote returns the unrounded wholesale price in the retail currency along
// with the retail price derived from it.
func (t *PriceTransformer) Quote(ctx context.Context, price decimal.Decimal, currency string) (converted, retail decimal.Decimal, err error) {
	converted, err = t.Convert(ctx, price, currency)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return converted, ApplyMargin(converted, t.marginPercent), nil
}

// Convert expresses a positive wholesale price in the retail currency
// without rounding.
func (t *PriceTransformer) Convert(ctx context.Context, price decimal.Decimal, currency string) (decimal.Decimal, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !price.IsPositive() {
		return decimal.Zero, &InvalidPriceError{Price: price, Currency: currency, Reason: "wholesale price must be positive"}
	}
	if currency == t.retailCurrency {
		return price, nil
	}
	if currency == "" {
		return decimal.Zero, &InvalidPriceError{Price: price, Currency: currency, Reason: "missing wholesale currency"}
	}
	if t.rates == nil {
		return decimal.Zero, &InvalidPriceError{Price: price, Currency: currency, Reason: "no exchange rate source"}
	}
	rate, ok := t.rates.Rate(ctx, currency)
	if !ok || !rate.IsPositive() {
		return decimal.Zero, &InvalidPriceError{Price: price, Currency: currency, Reason: "no exchange rate to " + t.retailCurrency}
	}
	return price.Mul(rate), nil
}

// ApplyMargin returns round(price * (1 + marginPercent/100), 2).
func ApplyMargin(price, marginPercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(marginPercent.Div(hundred))
	return price.Mul(factor).Round(2)
}
