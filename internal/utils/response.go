package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Response is the JSON envelope used by every endpoint except the cron and
// catalog sync triggers.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	RequestID  string      `json:"requestId"`
	Timestamp  string      `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// NewPagination clamps page and limit and derives the page count.
func NewPagination(page, limit, totalItems int) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return &Pagination{
		Page:       page,
		Limit:      limit,
		TotalItems: totalItems,
		TotalPages: (totalItems + limit - 1) / limit,
	}
}

func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{Success: true, Code: code, Message: message, Data: data, Meta: meta(c, nil)})
}

func SuccessWithPagination(c *gin.Context, code int, message string, data interface{}, page, limit, totalItems int) {
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    meta(c, NewPagination(page, limit, totalItems)),
	})
}

func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Error:   &ErrorInfo{Code: errCode, Message: message},
		Meta:    meta(c, nil),
	})
}

type apiError struct {
	status  int
	message string
}

var domainErrors = map[error]apiError{
	ErrInvalidCredentials:      {http.StatusUnauthorized, "Invalid email or password"},
	ErrInvalidToken:            {http.StatusUnauthorized, "Invalid or expired token"},
	ErrAccountInactive:         {http.StatusForbidden, "Account is inactive"},
	ErrForbidden:               {http.StatusForbidden, "Insufficient role"},
	ErrProductNotFound:         {http.StatusNotFound, "Product not found"},
	ErrProductUnavailable:      {http.StatusConflict, "Product is no longer available"},
	ErrOrderNotFound:           {http.StatusNotFound, "Order not found"},
	ErrInvalidQuantity:         {http.StatusBadRequest, "Quantity must be between 1 and 10"},
	ErrInvalidEmail:            {http.StatusBadRequest, "Invalid email address"},
	ErrInvalidStatusTransition: {http.StatusConflict, "Order cannot move to that status"},
	ErrInvalidExchangeRate:     {http.StatusBadRequest, "Invalid exchange rate"},
}

// RespondError writes err using the status and code of the first domain
// error it wraps. Anything else is logged and answered with a 500.
func RespondError(c *gin.Context, err error) {
	for target, api := range domainErrors {
		if errors.Is(err, target) {
			Error(c, api.status, target.Error(), api.message)
			return
		}
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Str("request_id", c.GetString("request_id")).Msg("Request failed")
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}

func meta(c *gin.Context, p *Pagination) Meta {
	id := c.GetString("request_id")
	if id == "" {
		id = uuid.New().String()[:8]
	}
	return Meta{RequestID: id, Timestamp: NowISO(), Pagination: p}
}

// NowISO returns the current UTC time in RFC 3339 format.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
