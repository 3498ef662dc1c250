package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/repository"
)

// memCatalog is an in-memory products table.
type memCatalog struct {
	mu       sync.Mutex
	rows     map[string]models.Product
	failAt   string
	upserts  int
	deactErr error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{rows: map[string]models.Product{}}
}

func (m *memCatalog) UpsertFromSync(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.SKU == m.failAt {
		return errors.New("connection reset")
	}
	m.upserts++
	if old, ok := m.rows[p.SKU]; ok {
		p.IsFeatured = old.IsFeatured
		p.CreatedAt = old.CreatedAt
	}
	p.IsActive = true
	m.rows[p.SKU] = *p
	return nil
}

func (m *memCatalog) DeactivateMissing(_ context.Context, sources []models.Source, keep []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deactErr != nil {
		return nil, m.deactErr
	}
	kept := map[string]bool{}
	for _, k := range keep {
		kept[k] = true
	}
	synced := map[models.Source]bool{}
	for _, s := range sources {
		synced[s] = true
	}
	var out []string
	for sku, p := range m.rows {
		if p.IsActive && synced[p.Source] && !kept[sku] {
			p.IsActive = false
			m.rows[sku] = p
			out = append(out, sku)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memCatalog) GetBySKU(_ context.Context, sku string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[sku]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (m *memCatalog) ListActive(_ context.Context, f repository.ProductFilter) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.rows {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (m *memCatalog) ListAdmin(_ context.Context, _ repository.AdminProductFilter, _, _ int) ([]models.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.rows {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memCatalog) SetFeatured(_ context.Context, sku string, featured bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[sku]
	if !ok {
		return sql.ErrNoRows
	}
	p.IsFeatured = featured
	m.rows[sku] = p
	return nil
}

func (m *memCatalog) get(sku string) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[sku]
}

// countingCache records tag invalidations.
type countingCache struct {
	tags []string
	err  error
}

func (c *countingCache) InvalidateTag(_ context.Context, tag string) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.tags = append(c.tags, tag)
	return 1, nil
}

// memOrders is an in-memory orders table.
type memOrders struct {
	rows map[string]models.Order
}

func newMemOrders() *memOrders {
	return &memOrders{rows: map[string]models.Order{}}
}

func (m *memOrders) Create(_ context.Context, o *models.Order) error {
	o.ID = len(m.rows) + 1
	m.rows[o.OrderID] = *o
	return nil
}

func (m *memOrders) GetByOrderID(_ context.Context, orderID string) (*models.Order, error) {
	o, ok := m.rows[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &o, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, orderID string, from, to models.OrderStatus) (*models.Order, error) {
	o, ok := m.rows[orderID]
	if !ok || o.Status != from {
		return nil, sql.ErrNoRows
	}
	o.Status = to
	m.rows[orderID] = o
	return &o, nil
}

// staticRates is a fixed RateSource.
type staticRates map[string]string

func sqlNoRows() error { return sql.ErrNoRows }
