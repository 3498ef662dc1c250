package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/utils"
)

// MaxOrderQuantity caps eSIMs per order.
const MaxOrderQuantity = 10

// OrderStore persists orders.
type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, from, to models.OrderStatus) (*models.Order, error)
}

// ProductLookup finds catalog products by SKU.
type ProductLookup interface {
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
}

// CreateOrderRequest is the storefront checkout payload.
type CreateOrderRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Quantity int    `json:"quantity"`
}

// OrderService creates orders with a price snapshot and walks their status.
type OrderService struct {
	orders   OrderStore
	products ProductLookup
	newID    func() (string, error)
}

// NewOrderService constructs an OrderService.
func NewOrderService(orders OrderStore, products ProductLookup) *OrderService {
	return &OrderService{orders: orders, products: products, newID: utils.GenerateOrderID}
}

// CreateOrder snapshots the current price of an active product into a new
// pending order.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 || req.Quantity > MaxOrderQuantity {
		return nil, utils.ErrInvalidQuantity
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, utils.ErrInvalidEmail
	}

	product, err := s.products.GetBySKU(ctx, strings.TrimSpace(req.SKU))
	if err != nil {
		if isNotFound(err) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, utils.ErrProductUnavailable
	}

	orderID, err := s.newID()
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderID:       orderID,
		ProductSKU:    product.SKU,
		ProductName:   product.Name,
		DataMB:        product.DataMB,
		ValidityDays:  product.ValidityDays,
		UnitPrice:     product.RetailPrice,
		Quantity:      req.Quantity,
		TotalAmount:   product.RetailPrice.Mul(decimal.NewFromInt(int64(req.Quantity))),
		Currency:      product.RetailCurrency,
		CustomerEmail: strings.ToLower(addr.Address),
		Status:        models.OrderPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	log.Info().
		Str("order_id", order.OrderID).
		Str("sku", order.ProductSKU).
		Int("quantity", order.Quantity).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("Order created")
	return order, nil
}

// GetOrder returns an order by its public reference.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, utils.ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

// UpdateStatus moves an order along pending -> paid -> fulfilled, or
// pending -> cancelled.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, next models.OrderStatus) (*models.Order, error) {
	current, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, utils.ErrInvalidStatusTransition
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, current.Status, next)
	if err != nil {
		if isNotFound(err) {
			return nil, utils.ErrInvalidStatusTransition
		}
		return nil, err
	}
	log.Info().Str("order_id", orderID).Str("from", string(current.Status)).Str("to", string(next)).Msg("Order status updated")
	return updated, nil
}
