package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/repository"
	"github.com/GTDGit/esim_api/internal/utils"
)

// ProductReader is the catalog read side used by the storefront and back office.
type ProductReader interface {
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
	ListActive(ctx context.Context, f repository.ProductFilter) ([]models.Product, error)
	ListAdmin(ctx context.Context, f repository.AdminProductFilter, page, limit int) ([]models.Product, int, error)
	SetFeatured(ctx context.Context, sku string, featured bool) error
}

// PageStore caches rendered listings by key and tag.
type PageStore interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, tags ...string) error
	CacheInvalidator
}

// MirrorReader serves single products from the document mirror.
type MirrorReader interface {
	GetBySKU(ctx context.Context, sku string) (*models.Product, bool, error)
}

// ProductService provides catalog reads with a tagged read-through cache.
type ProductService struct {
	products ProductReader
	pages    PageStore
	mirror   MirrorReader
}

// NewProductService constructs a ProductService. pages and mirror may be nil.
func NewProductService(products ProductReader, pages PageStore, mirror MirrorReader) *ProductService {
	return &ProductService{products: products, pages: pages, mirror: mirror}
}

func listingKey(f repository.ProductFilter) string {
	featured := "any"
	if f.Featured != nil {
		featured = fmt.Sprintf("%t", *f.Featured)
	}
	return fmt.Sprintf("products:country=%s:featured=%s", strings.ToUpper(f.Country), featured)
}

// ListProducts returns active products. Listings are cached under the
// products tag until the next catalog write or revalidation.
func (s *ProductService) ListProducts(ctx context.Context, f repository.ProductFilter) ([]models.Product, error) {
	key := listingKey(f)
	if s.pages != nil {
		var cached []models.Product
		hit, err := s.pages.Get(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Product cache read failed")
		}
		if hit {
			return cached, nil
		}
	}

	products, err := s.products.ListActive(ctx, f)
	if err != nil {
		return nil, err
	}

	if s.pages != nil {
		if err := s.pages.Set(ctx, key, products, TagProducts); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Product cache write failed")
		}
	}
	return products, nil
}

// GetProduct returns an active product by SKU.
func (s *ProductService) GetProduct(ctx context.Context, sku string) (*models.Product, error) {
	if s.mirror != nil {
		p, ok, err := s.mirror.GetBySKU(ctx, sku)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("sku", sku).Msg("Catalog mirror read failed, using database")
		case ok && p.IsActive:
			return p, nil
		}
	}

	p, err := s.products.GetBySKU(ctx, sku)
	if err != nil {
		if isNotFound(err) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, utils.ErrProductNotFound
	}
	return p, nil
}

// ListAdminProducts returns a page of products including inactive ones.
func (s *ProductService) ListAdminProducts(ctx context.Context, f repository.AdminProductFilter, page, limit int) ([]models.Product, int, error) {
	return s.products.ListAdmin(ctx, f, page, limit)
}

// SetFeatured toggles the featured flag and drops cached listings.
func (s *ProductService) SetFeatured(ctx context.Context, sku string, featured bool) (*models.Product, error) {
	if err := s.products.SetFeatured(ctx, sku, featured); err != nil {
		if isNotFound(err) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	if _, err := s.Revalidate(ctx); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("Product cache invalidation failed")
	}
	return s.products.GetBySKU(ctx, sku)
}

// Revalidate drops every cached product listing.
func (s *ProductService) Revalidate(ctx context.Context) (int, error) {
	if s.pages == nil {
		return 0, nil
	}
	n, err := s.pages.InvalidateTag(ctx, TagProducts)
	if err != nil {
		return 0, fmt.Errorf("revalidate products: %w", err)
	}
	return n, nil
}
