package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/esim_api/internal/models"
)

func TestMirrorProductKeepsExactPrice(t *testing.T) {
	p := &models.Product{
		SKU:            "MM-1",
		Name:           "Japan 5GB",
		Source:         models.SourceMobiMatter,
		Countries:      []string{"JP"},
		DataMB:         5120,
		ValidityDays:   7,
		RetailPrice:    decimal.RequireFromString("43125.50"),
		RetailCurrency: "MNT",
		IsActive:       true,
		LastSyncedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	doc, err := toMirrorProduct(p)
	require.NoError(t, err)

	back, err := fromMirrorProduct(doc)
	require.NoError(t, err)
	assert.True(t, p.RetailPrice.Equal(back.RetailPrice))
	assert.Equal(t, p.SKU, back.SKU)
	assert.Equal(t, []string{"JP"}, []string(back.Countries))
	assert.True(t, back.IsActive)
}
