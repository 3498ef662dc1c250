package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/pkg/airalo"
)

// Airalo prices are always quoted in USD.
const airaloCurrency = "USD"

// AiraloSource fetches wholesale packages from Airalo.
type AiraloSource struct {
	client *airalo.Client
	policy RetryPolicy
}

// NewAiraloSource wraps an Airalo client as an Aggregator.
func NewAiraloSource(client *airalo.Client, policy RetryPolicy) *AiraloSource {
	return &AiraloSource{client: client, policy: policy}
}

// Source returns the aggregator identifier.
func (s *AiraloSource) Source() models.Source {
	return models.SourceAiralo
}

// FetchProducts fetches and normalizes every Airalo package.
func (s *AiraloSource) FetchProducts(ctx context.Context) (*FetchResult, error) {
	var (
		packages []airalo.FlatPackage
		raw      []byte
	)
	err := fetchWithRetry(ctx, s.Source(), s.policy, func(ctx context.Context) error {
		var err error
		packages, raw, err = s.client.GetPackages(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &FetchResult{Source: s.Source(), Raw: raw}
	for _, p := range packages {
		if p.ID == "" || len(p.Countries) == 0 || p.Day <= 0 {
			log.Warn().Str("source", string(s.Source())).Str("sku", p.ID).Msg("Skipping incomplete package")
			result.Rejected++
			continue
		}
		price, err := decimal.NewFromString(p.Price.String())
		if err != nil {
			price = decimal.Zero
		}
		dataMB := p.Amount
		if p.IsUnlimited {
			dataMB = models.UnlimitedData
		}
		name := strings.TrimSpace(p.Title)
		if name == "" {
			name = strings.TrimSpace(p.Operator)
		}
		result.Products = append(result.Products, models.WholesaleProduct{
			SKU:          p.ID,
			Source:       s.Source(),
			Provider:     strings.TrimSpace(p.Operator),
			Name:         name,
			Countries:    p.Countries,
			DataMB:       dataMB,
			ValidityDays: p.Day,
			Price:        price,
			Currency:     airaloCurrency,
		})
	}
	return result, nil
}
