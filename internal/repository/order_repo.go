package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/esim_api/internal/models"
)

// OrderRepository handles data access for orders.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order and fills its generated fields.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	const q = `
		INSERT INTO orders (
			order_id, product_sku, product_name, data_mb, validity_days,
			unit_price, quantity, total_amount, currency, customer_email, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, q,
		o.OrderID, o.ProductSKU, o.ProductName, o.DataMB, o.ValidityDays,
		o.UnitPrice, o.Quantity, o.TotalAmount, o.Currency, o.CustomerEmail, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

// GetByOrderID returns an order by its public reference.
func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	if err := r.db.GetContext(ctx, &o, `SELECT * FROM orders WHERE order_id = $1`, orderID); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus moves an order from one status to another. It returns
// sql.ErrNoRows when the order is no longer in status from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, from, to models.OrderStatus) (*models.Order, error) {
	const q = `
		UPDATE orders SET
			status = $3,
			paid_at = CASE WHEN $3 = 'paid' THEN NOW() ELSE paid_at END,
			fulfilled_at = CASE WHEN $3 = 'fulfilled' THEN NOW() ELSE fulfilled_at END,
			updated_at = NOW()
		WHERE order_id = $1 AND status = $2
		RETURNING *`

	var o models.Order
	err := r.db.QueryRowxContext(ctx, q, orderID, from, to).StructScan(&o)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
