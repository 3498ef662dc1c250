package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/models"
)

// TagProducts is the cache tag for every page that renders catalog data.
const TagProducts = "products"

// CatalogStore persists catalog products.
type CatalogStore interface {
	// UpsertFromSync inserts p or updates the synced fields of the row with
	// the same SKU. Operator-owned fields (featured) are left alone.
	UpsertFromSync(ctx context.Context, p *models.Product) error
	// DeactivateMissing sets is_active=false on active rows of sources whose
	// SKU is not in keep, returning the SKUs it changed.
	DeactivateMissing(ctx context.Context, sources []models.Source, keep []string) ([]string, error)
}

// CacheInvalidator drops cached renderings by tag.
type CacheInvalidator interface {
	InvalidateTag(ctx context.Context, tag string) (int, error)
}

// CatalogMirror copies catalog state to a secondary read store.
type CatalogMirror interface {
	Sync(ctx context.Context, active []models.Product, deactivated []string) error
}

// WriteResult summarizes a catalog write.
type WriteResult struct {
	Written     int
	Deactivated []string
}

// CatalogWriter upserts the deduplicated offers and retires missing SKUs.
type CatalogWriter struct {
	store  CatalogStore
	cache  CacheInvalidator
	mirror CatalogMirror
	now    func() time.Time
}

// NewCatalogWriter constructs a CatalogWriter. cache and mirror may be nil.
func NewCatalogWriter(store CatalogStore, cache CacheInvalidator, mirror CatalogMirror) *CatalogWriter {
	return &CatalogWriter{store: store, cache: cache, mirror: mirror, now: time.Now}
}

// Write upserts every offer in order. The first failing upsert aborts the
// batch with a *WriteError carrying the number of committed rows; nothing is
// deactivated in that case. Cache and mirror failures are logged only.
func (w *CatalogWriter) Write(ctx context.Context, runID string, sources []models.Source, offers []PricedOffer) (*WriteResult, error) {
	result := &WriteResult{}
	now := w.now()
	written := make([]models.Product, 0, len(offers))
	keep := make([]string, 0, len(offers))

	for _, o := range offers {
		p := toCatalogProduct(o, runID, now)
		if err := w.store.UpsertFromSync(ctx, &p); err != nil {
			return result, &WriteError{Committed: result.Written, SKU: o.SKU, Err: err}
		}
		result.Written++
		written = append(written, p)
		keep = append(keep, p.SKU)
	}

	deactivated, err := w.store.DeactivateMissing(ctx, sources, keep)
	if err != nil {
		return result, &WriteError{Committed: result.Written, Err: fmt.Errorf("deactivate missing: %w", err)}
	}
	result.Deactivated = deactivated

	if w.mirror != nil {
		if err := w.mirror.Sync(ctx, written, deactivated); err != nil {
			log.Warn().Err(err).Str("run_id", runID).Msg("Catalog mirror sync failed")
		}
	}
	w.invalidate(ctx, runID)
	return result, nil
}

func (w *CatalogWriter) invalidate(ctx context.Context, runID string) {
	if w.cache == nil {
		return
	}
	n, err := w.cache.InvalidateTag(ctx, TagProducts)
	if err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("Product cache invalidation failed")
		return
	}
	log.Debug().Str("run_id", runID).Int("keys", n).Msg("Product cache invalidated")
}

func toCatalogProduct(o PricedOffer, runID string, now time.Time) models.Product {
	p := models.Product{
		SKU:               o.SKU,
		Name:              displayName(o.WholesaleProduct),
		Provider:          o.Provider,
		Source:            o.Source,
		Countries:         NormalizeCountries(o.Countries),
		DataMB:            o.DataMB,
		ValidityDays:      o.ValidityDays,
		RetailPrice:       o.RetailPrice,
		RetailCurrency:    o.RetailCurrency,
		WholesalePrice:    o.Price,
		WholesaleCurrency: o.Currency,
		IsActive:          true,
		LastSyncedAt:      now,
	}
	if runID != "" {
		id := runID
		p.LastSyncRunID = &id
	}
	return p
}

// displayName falls back to "<countries> <data> <days>d" when upstream has no title.
func displayName(w models.WholesaleProduct) string {
	if name := strings.TrimSpace(w.Name); name != "" {
		return name
	}
	data := "Unlimited"
	if w.DataMB != models.UnlimitedData {
		if w.DataMB >= 1024 && w.DataMB%1024 == 0 {
			data = fmt.Sprintf("%dGB", w.DataMB/1024)
		} else {
			data = fmt.Sprintf("%dMB", w.DataMB)
		}
	}
	return fmt.Sprintf("%s %s %dd", strings.Join(NormalizeCountries(w.Countries), "/"), data, w.ValidityDays)
}
