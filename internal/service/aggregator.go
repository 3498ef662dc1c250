package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/config"
	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/pkg/airalo"
	"github.com/GTDGit/esim_api/pkg/mobimatter"
)

// Aggregator is an upstream eSIM wholesaler.
type Aggregator interface {
	Source() models.Source
	// FetchProducts returns the full current wholesale list. Errors are
	// *AuthError or *FetchError.
	FetchProducts(ctx context.Context) (*FetchResult, error)
}

// FetchResult is a normalized product list plus the raw upstream payload.
type FetchResult struct {
	Source   models.Source
	Products []models.WholesaleProduct
	// Rejected counts upstream records that could not be normalized.
	Rejected int
	Raw      []byte
}

// RetryPolicy bounds retries of transient network failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy retries up to 3 attempts with exponential backoff from 500ms.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// httpStatusError is implemented by the upstream client status errors.
type httpStatusError interface {
	error
	HTTPStatus() int
}

// fetchWithRetry runs call until it succeeds, fails permanently, or the
// attempts are exhausted. Only transport-level failures are retried: an
// upstream answer with a non-2xx status is final for this run.
func fetchWithRetry(ctx context.Context, source models.Source, policy RetryPolicy, call func(ctx context.Context) error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := call(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if authErr := asAuthError(source, err); authErr != nil {
			return authErr
		}
		if !isTransient(err) || ctx.Err() != nil {
			return &FetchError{Source: source, Attempts: attempt, Err: err}
		}
		if attempt == policy.MaxAttempts {
			break
		}

		wait := policy.delay(attempt)
		log.Warn().
			Err(err).
			Str("source", string(source)).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Aggregator fetch failed, retrying")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return &FetchError{Source: source, Attempts: attempt, Err: ctx.Err()}
		}
	}
	return &FetchError{Source: source, Attempts: policy.MaxAttempts, Err: lastErr}
}

func asAuthError(source models.Source, err error) *AuthError {
	var se httpStatusError
	if errors.As(err, &se) {
		switch se.HTTPStatus() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &AuthError{Source: source, StatusCode: se.HTTPStatus(), Err: err}
		}
	}
	return nil
}

// isTransient reports whether err is a transport failure worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se httpStatusError
	if errors.As(err, &se) {
		return false
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false
	}
	return true
}

// NewAggregators builds an Aggregator for every configured wholesaler.
func NewAggregators(cfg *config.Config) []Aggregator {
	policy := RetryPolicy{
		MaxAttempts: cfg.Upstream.RetryAttempts,
		BaseDelay:   cfg.Upstream.RetryBaseWait,
		MaxDelay:    DefaultRetryPolicy.MaxDelay,
	}

	var aggs []Aggregator
	if cfg.MobiMatter.Enabled() {
		aggs = append(aggs, NewMobiMatterSource(mobimatter.NewClient(mobimatter.Config{
			BaseURL:    cfg.MobiMatter.BaseURL,
			APIKey:     cfg.MobiMatter.APIKey,
			MerchantID: cfg.MobiMatter.MerchantID,
			Timeout:    cfg.Upstream.Timeout,
		}), policy))
	}
	if cfg.Airalo.Enabled() {
		aggs = append(aggs, NewAiraloSource(airalo.NewClient(airalo.Config{
			BaseURL:      cfg.Airalo.BaseURL,
			ClientID:     cfg.Airalo.ClientID,
			ClientSecret: cfg.Airalo.ClientSecret,
			Timeout:      cfg.Upstream.Timeout,
		}), policy))
	}
	return aggs
}
