package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/esim_api/internal/models"
)

// AuthError means the aggregator rejected our credentials. Never retried.
type AuthError struct {
	Source     models.Source
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s rejected credentials (status %d): %v", e.Source, e.StatusCode, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError means the product list could not be retrieved: network failure,
// timeout, a non-2xx answer or an undecodable body.
type FetchError struct {
	Source   models.Source
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s failed after %d attempt(s): %v", e.Source, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// InvalidPriceError marks one wholesale record whose price cannot be turned
// into a retail price. The record is skipped; the run continues.
type InvalidPriceError struct {
	SKU      string
	Price    decimal.Decimal
	Currency string
	Reason   string
}

func (e *InvalidPriceError) Error() string {
	if e.SKU == "" {
		return fmt.Sprintf("invalid price %s %s: %s", e.Price.String(), e.Currency, e.Reason)
	}
	return fmt.Sprintf("invalid price for %s (%s %s): %s", e.SKU, e.Price.String(), e.Currency, e.Reason)
}

// WriteError aborts the remaining catalog writes. Committed counts the
// upserts that succeeded before the failure; re-running is safe.
type WriteError struct {
	Committed int
	SKU       string
	Err       error
}

func (e *WriteError) Error() string {
	if e.SKU == "" {
		return fmt.Sprintf("catalog write failed after %d committed record(s): %v", e.Committed, e.Err)
	}
	return fmt.Sprintf("catalog write failed at %s after %d committed record(s): %v", e.SKU, e.Committed, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
