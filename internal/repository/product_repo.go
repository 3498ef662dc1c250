package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GTDGit/esim_api/internal/models"
)

// ProductRepository handles data access for catalog products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ProductFilter narrows storefront listings. Zero values are ignored.
type ProductFilter struct {
	Country  string
	Featured *bool
}

// AdminProductFilter narrows back-office listings. Zero values are ignored.
type AdminProductFilter struct {
	Search string
	Source string
	Active *bool
}

const productColumns = `id, sku, name, provider, source, countries, data_mb, validity_days,
	retail_price, retail_currency, wholesale_price, wholesale_currency,
	is_active, is_featured, last_synced_at, last_sync_run_id, created_at, updated_at`

// UpsertFromSync inserts p or refreshes the synced columns of the existing
// row with the same SKU. is_featured belongs to operators and is preserved.
func (r *ProductRepository) UpsertFromSync(ctx context.Context, p *models.Product) error {
	const q = `
		INSERT INTO products (
			sku, name, provider, source, countries, data_mb, validity_days,
			retail_price, retail_currency, wholesale_price, wholesale_currency,
			is_active, last_synced_at, last_sync_run_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, $12, $13)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			provider = EXCLUDED.provider,
			source = EXCLUDED.source,
			countries = EXCLUDED.countries,
			data_mb = EXCLUDED.data_mb,
			validity_days = EXCLUDED.validity_days,
			retail_price = EXCLUDED.retail_price,
			retail_currency = EXCLUDED.retail_currency,
			wholesale_price = EXCLUDED.wholesale_price,
			wholesale_currency = EXCLUDED.wholesale_currency,
			is_active = TRUE,
			last_synced_at = EXCLUDED.last_synced_at,
			last_sync_run_id = EXCLUDED.last_sync_run_id,
			updated_at = NOW()
		RETURNING id, is_featured, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, q,
		p.SKU, p.Name, p.Provider, p.Source, p.Countries, p.DataMB, p.ValidityDays,
		p.RetailPrice, p.RetailCurrency, p.WholesalePrice, p.WholesaleCurrency,
		p.LastSyncedAt, p.LastSyncRunID,
	).Scan(&p.ID, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
}

// DeactivateMissing flags active products of the given sources whose SKU is
// not in keep. It returns the affected SKUs.
func (r *ProductRepository) DeactivateMissing(ctx context.Context, sources []models.Source, keep []string) ([]string, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	srcs := make([]string, len(sources))
	for i, s := range sources {
		srcs[i] = string(s)
	}
	if keep == nil {
		keep = []string{}
	}

	const q = `
		UPDATE products
		SET is_active = FALSE, updated_at = NOW()
		WHERE is_active = TRUE
		AND source = ANY($1)
		AND NOT (sku = ANY($2))
		RETURNING sku`

	var skus []string
	if err := r.db.SelectContext(ctx, &skus, q, pq.Array(srcs), pq.Array(keep)); err != nil {
		return nil, err
	}
	return skus, nil
}

// GetBySKU returns a product by SKU regardless of its active flag.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE sku = $1 LIMIT 1`
	stmt, err := r.db.PreparexContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var p models.Product
	if err := stmt.GetContext(ctx, &p, sku); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActive returns active products for the storefront, featured first.
func (r *ProductRepository) ListActive(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	where := []string{"is_active = TRUE"}
	args := []interface{}{}

	if f.Country != "" {
		args = append(args, strings.ToUpper(f.Country))
		where = append(where, fmt.Sprintf("$%d = ANY(countries)", len(args)))
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		where = append(where, fmt.Sprintf("is_featured = $%d", len(args)))
	}

	q := `SELECT ` + productColumns + ` FROM products WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY is_featured DESC, retail_price ASC, sku ASC`

	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, q, args...); err != nil {
		return nil, err
	}
	return products, nil
}

// ListAdmin returns a page of products including inactive ones, plus the total count.
// Page begins at 1.
func (r *ProductRepository) ListAdmin(ctx context.Context, f AdminProductFilter, page, limit int) ([]models.Product, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const baseWhere = `WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
		AND ($2 = '' OR source = $2)
		AND ($3::boolean IS NULL OR is_active = $3)`

	var active sql.NullBool
	if f.Active != nil {
		active = sql.NullBool{Bool: *f.Active, Valid: true}
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM products `+baseWhere, f.Search, f.Source, active); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + productColumns + ` FROM products ` + baseWhere + `
		ORDER BY updated_at DESC, sku ASC LIMIT $4 OFFSET $5`
	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, q, f.Search, f.Source, active, limit, offset); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// SetFeatured updates the featured flag. It returns sql.ErrNoRows when the SKU does not exist.
func (r *ProductRepository) SetFeatured(ctx context.Context, sku string, featured bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_featured = $2, updated_at = NOW() WHERE sku = $1`, sku, featured)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
