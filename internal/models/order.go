package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderPaid, OrderCancelled},
	OrderPaid:    {OrderFulfilled},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order references a catalog product by SKU and keeps a snapshot of what was
// charged, so repricing the catalog never changes a historical order.
type Order struct {
	ID            int             `db:"id" json:"-"`
	OrderID       string          `db:"order_id" json:"orderId"`
	ProductSKU    string          `db:"product_sku" json:"sku"`
	ProductName   string          `db:"product_name" json:"productName"`
	DataMB        int             `db:"data_mb" json:"dataMb"`
	ValidityDays  int             `db:"validity_days" json:"validityDays"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Quantity      int             `db:"quantity" json:"quantity"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"totalAmount"`
	Currency      string          `db:"currency" json:"currency"`
	CustomerEmail string          `db:"customer_email" json:"customerEmail"`
	Status        OrderStatus     `db:"status" json:"status"`
	PaidAt        *time.Time      `db:"paid_at" json:"paidAt,omitempty"`
	FulfilledAt   *time.Time      `db:"fulfilled_at" json:"fulfilledAt,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}
