package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/pkg/mobimatter"
)

// MobiMatterSource fetches wholesale offers from MobiMatter.
type MobiMatterSource struct {
	client *mobimatter.Client
	policy RetryPolicy
}

// NewMobiMatterSource wraps a MobiMatter client as an Aggregator.
func NewMobiMatterSource(client *mobimatter.Client, policy RetryPolicy) *MobiMatterSource {
	return &MobiMatterSource{client: client, policy: policy}
}

// Source returns the aggregator identifier.
func (s *MobiMatterSource) Source() models.Source {
	return models.SourceMobiMatter
}

// FetchProducts fetches and normalizes the MobiMatter product list.
func (s *MobiMatterSource) FetchProducts(ctx context.Context) (*FetchResult, error) {
	var (
		products []mobimatter.Product
		raw      []byte
	)
	err := fetchWithRetry(ctx, s.Source(), s.policy, func(ctx context.Context) error {
		var err error
		products, raw, err = s.client.GetProducts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &FetchResult{Source: s.Source(), Raw: raw}
	for i := range products {
		wp, ok := s.normalize(&products[i])
		if !ok {
			result.Rejected++
			continue
		}
		result.Products = append(result.Products, wp)
	}
	return result, nil
}

func (s *MobiMatterSource) normalize(p *mobimatter.Product) (models.WholesaleProduct, bool) {
	logger := log.With().Str("source", string(s.Source())).Str("sku", p.ProductID).Logger()

	if p.ProductID == "" || len(p.Countries) == 0 {
		logger.Warn().Msg("Skipping product without id or countries")
		return models.WholesaleProduct{}, false
	}
	dataMB, err := p.DataMB()
	if err != nil {
		logger.Warn().Err(err).Msg("Skipping product with unreadable data allowance")
		return models.WholesaleProduct{}, false
	}
	days, err := p.ValidityDays()
	if err != nil {
		logger.Warn().Err(err).Msg("Skipping product with unreadable validity")
		return models.WholesaleProduct{}, false
	}
	// An unparseable price becomes zero and is rejected by the transformer.
	price, err := decimal.NewFromString(p.WholesalePrice.String())
	if err != nil {
		price = decimal.Zero
	}

	return models.WholesaleProduct{
		SKU:          p.ProductID,
		Source:       s.Source(),
		Provider:     strings.TrimSpace(p.ProviderName),
		Name:         strings.TrimSpace(p.Title()),
		Countries:    p.Countries,
		DataMB:       dataMB,
		ValidityDays: days,
		Price:        price,
		Currency:     strings.ToUpper(p.CurrencyCode),
	}, true
}
