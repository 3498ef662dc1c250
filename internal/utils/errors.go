package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken            = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials      = errors.New("INVALID_CREDENTIALS")
	ErrAccountInactive         = errors.New("ACCOUNT_INACTIVE")
	ErrForbidden               = errors.New("FORBIDDEN")
	ErrProductNotFound         = errors.New("PRODUCT_NOT_FOUND")
	ErrProductUnavailable      = errors.New("PRODUCT_UNAVAILABLE")
	ErrOrderNotFound           = errors.New("ORDER_NOT_FOUND")
	ErrInvalidQuantity         = errors.New("INVALID_QUANTITY")
	ErrInvalidEmail            = errors.New("INVALID_EMAIL")
	ErrInvalidStatusTransition = errors.New("INVALID_STATUS_TRANSITION")
	ErrInvalidExchangeRate     = errors.New("INVALID_EXCHANGE_RATE")
)
