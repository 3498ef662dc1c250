package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/esim_api/internal/models"
)

type recordingMirror struct {
	active      []models.Product
	deactivated []string
	err         error
}

func (m *recordingMirror) Sync(_ context.Context, active []models.Product, deactivated []string) error {
	m.active = active
	m.deactivated = deactivated
	return m.err
}

var mobimatterOnly = []models.Source{models.SourceMobiMatter}

func TestCatalogWriterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemCatalog()
	cache := &countingCache{}
	w := NewCatalogWriter(store, cache, nil)
	offers := []PricedOffer{
		offer("A", "X", []string{"JP"}, 1024, 7, "5"),
		offer("B", "Y", []string{"KR"}, 2048, 7, "6"),
	}

	first, err := w.Write(ctx, "run-1", mobimatterOnly, offers)
	require.NoError(t, err)
	snapshot := store.get("A")

	second, err := w.Write(ctx, "run-2", mobimatterOnly, offers)
	require.NoError(t, err)

	assert.Equal(t, 2, first.Written)
	assert.Equal(t, 2, second.Written)
	assert.Empty(t, second.Deactivated)
	assert.Len(t, store.rows, 2)
	again := store.get("A")
	assert.True(t, snapshot.RetailPrice.Equal(again.RetailPrice))
	assert.True(t, again.IsActive)
	require.NotNil(t, again.LastSyncRunID)
	assert.Equal(t, "run-2", *again.LastSyncRunID)
	assert.Equal(t, []string{TagProducts, TagProducts}, cache.tags)
}

func TestCatalogWriterDeactivatesMissing(t *testing.T) {
	ctx := context.Background()
	store := newMemCatalog()
	w := NewCatalogWriter(store, nil, nil)

	_, err := w.Write(ctx, "r1", mobimatterOnly, []PricedOffer{
		offer("A", "X", []string{"JP"}, 1024, 7, "5"),
		offer("B", "X", []string{"KR"}, 1024, 7, "5"),
	})
	require.NoError(t, err)

	res, err := w.Write(ctx, "r2", mobimatterOnly, []PricedOffer{
		offer("A", "X", []string{"JP"}, 1024, 7, "5"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, res.Deactivated)
	assert.True(t, store.get("A").IsActive)
	b := store.get("B")
	assert.False(t, b.IsActive)
	assert.Equal(t, "B", b.SKU, "deactivated rows are kept")
}

func TestCatalogWriterLeavesOtherSourcesAlone(t *testing.T) {
	ctx := context.Background()
	store := newMemCatalog()
	store.rows["AIR-1"] = models.Product{SKU: "AIR-1", Source: models.SourceAiralo, IsActive: true}
	w := NewCatalogWriter(store, nil, nil)

	res, err := w.Write(ctx, "r1", mobimatterOnly, []PricedOffer{offer("A", "X", []string{"JP"}, 1024, 7, "5")})
	require.NoError(t, err)
	assert.Empty(t, res.Deactivated)
	assert.True(t, store.get("AIR-1").IsActive)
}

func TestCatalogWriterPreservesFeatured(t *testing.T) {
	ctx := context.Background()
	store := newMemCatalog()
	w := NewCatalogWriter(store, nil, nil)

	_, err := w.Write(ctx, "r1", mobimatterOnly, []PricedOffer{offer("A", "X", []string{"JP"}, 1024, 7, "5")})
	require.NoError(t, err)
	require.NoError(t, store.SetFeatured(ctx, "A", true))

	_, err = w.Write(ctx, "r2", mobimatterOnly, []PricedOffer{offer("A", "X", []string{"JP"}, 1024, 7, "7")})
	require.NoError(t, err)
	a := store.get("A")
	assert.True(t, a.IsFeatured)
	assert.Equal(t, "7.00", a.RetailPrice.StringFixed(2))
}

func TestCatalogWriterAbortsOnFailedUpsert(t *testing.T) {
	ctx := context.Background()
	store := newMemCatalog()
	store.rows["OLD"] = models.Product{SKU: "OLD", Source: models.SourceMobiMatter, IsActive: true}
	store.failAt = "C"
	cache := &countingCache{}
	w := NewCatalogWriter(store, cache, nil)

	res, err := w.Write(ctx, "r1", mobimatterOnly, []PricedOffer{
		offer("A", "X", []string{"JP"}, 1024, 7, "5"),
		offer("B", "X", []string{"KR"}, 1024, 7, "5"),
		offer("C", "X", []string{"TH"}, 1024, 7, "5"),
		offer("D", "X", []string{"VN"}, 1024, 7, "5"),
	})

	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, 2, writeErr.Committed)
	assert.Equal(t, "C", writeErr.SKU)
	assert.Equal(t, 2, res.Written)
	assert.True(t, store.get("OLD").IsActive, "no deactivation after a failed batch")
	assert.NotContains(t, store.rows, "D")
	assert.Empty(t, cache.tags)
}

func TestCatalogWriterMirrorAndCacheFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	store := newMemCatalog()
	mirror := &recordingMirror{err: errors.New("mongo down")}
	w := NewCatalogWriter(store, &countingCache{err: errors.New("redis down")}, mirror)

	res, err := w.Write(ctx, "r1", mobimatterOnly, []PricedOffer{offer("A", "X", []string{"jp"}, 1024, 7, "5")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)
	require.Len(t, mirror.active, 1)
	assert.Equal(t, []string{"JP"}, []string(mirror.active[0].Countries))
}

func TestOrderSnapshotSurvivesResync(t *testing.T) {
	ctx := context.Background()
	store := newMemCatalog()
	w := NewCatalogWriter(store, nil, nil)
	orders := NewOrderService(newMemOrders(), store)

	_, err := w.Write(ctx, "r1", mobimatterOnly, []PricedOffer{offer("A", "X", []string{"JP"}, 1024, 7, "12.50")})
	require.NoError(t, err)

	order, err := orders.CreateOrder(ctx, CreateOrderRequest{SKU: "A", Email: "buyer@example.com", Quantity: 2})
	require.NoError(t, err)

	_, err = w.Write(ctx, "r2", mobimatterOnly, []PricedOffer{offer("A", "X", []string{"JP"}, 1024, 7, "15.00")})
	require.NoError(t, err)

	stored, err := orders.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "12.50", stored.UnitPrice.StringFixed(2))
	assert.Equal(t, "25.00", stored.TotalAmount.StringFixed(2))
	assert.Equal(t, "15.00", store.get("A").RetailPrice.StringFixed(2))
}

func TestDisplayNameFallback(t *testing.T) {
	assert.Equal(t, "JP/KR 5GB 7d", displayName(models.WholesaleProduct{Countries: []string{"kr", "jp"}, DataMB: 5120, ValidityDays: 7}))
	assert.Equal(t, "TH 500MB 3d", displayName(models.WholesaleProduct{Countries: []string{"TH"}, DataMB: 500, ValidityDays: 3}))
	assert.Equal(t, "US Unlimited 30d", displayName(models.WholesaleProduct{Countries: []string{"US"}, DataMB: models.UnlimitedData, ValidityDays: 30}))
	assert.Equal(t, "Japan Lite", displayName(models.WholesaleProduct{Name: " Japan Lite "}))
}
