package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/utils"
)

// ExchangeRateStore reads and writes exchange rates.
type ExchangeRateStore interface {
	List(ctx context.Context) ([]models.ExchangeRate, error)
	Upsert(ctx context.Context, currency string, rate decimal.Decimal) (*models.ExchangeRate, error)
}

// ExchangeRateHandler lets operators maintain conversion rates to the retail currency.
type ExchangeRateHandler struct {
	rates          ExchangeRateStore
	retailCurrency string
}

// NewExchangeRateHandler creates a new ExchangeRateHandler.
func NewExchangeRateHandler(rates ExchangeRateStore, retailCurrency string) *ExchangeRateHandler {
	return &ExchangeRateHandler{rates: rates, retailCurrency: strings.ToUpper(retailCurrency)}
}

// List handles GET /v1/admin/exchange-rates
func (h *ExchangeRateHandler) List(c *gin.Context) {
	rates, err := h.rates.List(c.Request.Context())
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve exchange rates")
		return
	}
	utils.Success(c, 200, "Exchange rates retrieved", gin.H{
		"retailCurrency": h.retailCurrency,
		"rates":          rates,
	})
}

// Put handles PUT /v1/admin/exchange-rates/:currency
func (h *ExchangeRateHandler) Put(c *gin.Context) {
	var req struct {
		Rate decimal.Decimal `json:"rate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "rate is required")
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(c.Param("currency")))
	if len(currency) != 3 || currency == h.retailCurrency || !req.Rate.IsPositive() {
		utils.Error(c, 400, utils.ErrInvalidExchangeRate.Error(), "Rate must be positive for a 3-letter currency other than "+h.retailCurrency)
		return
	}

	rate, err := h.rates.Upsert(c.Request.Context(), currency, req.Rate)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to save exchange rate")
		return
	}
	utils.Success(c, 200, "Exchange rate saved", rate)
}
