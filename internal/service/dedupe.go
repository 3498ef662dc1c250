package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/esim_api/internal/models"
)

// PricedOffer is a wholesale offer with its computed retail price.
type PricedOffer struct {
	models.WholesaleProduct
	// WholesaleRetail is the wholesale price converted to the retail
	// currency, before margin and rounding.
	WholesaleRetail decimal.Decimal
	RetailPrice     decimal.Decimal
	RetailCurrency  string
}

// OfferKey identifies offers that sell the same thing: same coverage, same
// allowance, same validity.
func OfferKey(w models.WholesaleProduct) string {
	return fmt.Sprintf("%s|%d|%d", strings.Join(NormalizeCountries(w.Countries), ","), w.DataMB, w.ValidityDays)
}

// NormalizeCountries upper-cases, trims, de-duplicates and sorts country codes.
func NormalizeCountries(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Deduplicate keeps one offer per OfferKey. The winner is the cheapest
// offer, then the smallest provider name, then the smallest SKU, so the same
// input always yields the same catalog SKUs. Output is sorted by SKU.
func Deduplicate(offers []PricedOffer) []PricedOffer {
	best := make(map[string]PricedOffer, len(offers))
	for _, o := range offers {
		key := OfferKey(o.WholesaleProduct)
		cur, ok := best[key]
		if !ok || preferOffer(o, cur) {
			best[key] = o
		}
	}

	out := make([]PricedOffer, 0, len(best))
	for _, o := range best {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// preferOffer reports whether a beats b. Wholesale prices are compared after
// conversion to the retail currency but before rounding, so two offers only
// tie when their wholesale cost is really equal.
func preferOffer(a, b PricedOffer) bool {
	if c := a.cost().Cmp(b.cost()); c != 0 {
		return c < 0
	}
	if a.Provider != b.Provider {
		return a.Provider < b.Provider
	}
	return a.SKU < b.SKU
}

func (o PricedOffer) cost() decimal.Decimal {
	if o.WholesaleRetail.IsZero() {
		return o.RetailPrice
	}
	return o.WholesaleRetail
}
