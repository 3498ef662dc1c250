package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/pkg/mobimatter"
)

var fastRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func TestFetchWithRetryRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	err := fetchWithRetry(context.Background(), models.SourceMobiMatter, fastRetry, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestFetchWithRetryGivesUp(t *testing.T) {
	calls := 0
	err := fetchWithRetry(context.Background(), models.SourceMobiMatter, fastRetry, func(context.Context) error {
		calls++
		return errors.New("i/o timeout")
	})
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 3, fetchErr.Attempts)
	assert.Equal(t, 3, calls)
}

func TestFetchWithRetryAuthIsFinal(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		calls := 0
		err := fetchWithRetry(context.Background(), models.SourceMobiMatter, fastRetry, func(context.Context) error {
			calls++
			return &mobimatter.StatusError{StatusCode: status}
		})
		var authErr *AuthError
		require.True(t, errors.As(err, &authErr), status)
		assert.Equal(t, status, authErr.StatusCode)
		assert.Equal(t, 1, calls)
	}
}

func TestFetchWithRetryServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	err := fetchWithRetry(context.Background(), models.SourceMobiMatter, fastRetry, func(context.Context) error {
		calls++
		return &mobimatter.StatusError{StatusCode: http.StatusBadGateway}
	})
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 1, calls)

	var authErr *AuthError
	assert.False(t, errors.As(err, &authErr))
}

func TestFetchWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := fetchWithRetry(ctx, models.SourceMobiMatter, RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("connection reset")
	})
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 1, calls)
}

func TestMobiMatterSourceNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"statusCode":200,"result":[
			{"productId":"mm-1","providerName":"Provider X","countries":["jp"],"wholesalePrice":4.5,"currencyCode":"usd",
			 "productDetails":[{"name":"PLAN_TITLE","value":"Japan 1GB"},{"name":"PLAN_DATA_LIMIT","value":"1"},{"name":"PLAN_DATA_UNIT","value":"GB"},{"name":"PLAN_VALIDITY","value":"168"}]},
			{"productId":"mm-2","providerName":"Provider X","countries":[],"wholesalePrice":3,"currencyCode":"USD","productDetails":[]}
		]}`))
	}))
	defer srv.Close()

	client := mobimatter.NewClient(mobimatter.Config{BaseURL: srv.URL, APIKey: "k", MerchantID: "m"})
	res, err := NewMobiMatterSource(client, fastRetry).FetchProducts(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Products, 1)
	assert.Equal(t, 1, res.Rejected)
	assert.NotEmpty(t, res.Raw)

	p := res.Products[0]
	assert.Equal(t, "mm-1", p.SKU)
	assert.Equal(t, models.SourceMobiMatter, p.Source)
	assert.Equal(t, 1024, p.DataMB)
	assert.Equal(t, 7, p.ValidityDays)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "Japan 1GB", p.Name)
	assert.True(t, d("4.5").Equal(p.Price))
}

func TestMobiMatterSourceUnauthorized(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := mobimatter.NewClient(mobimatter.Config{BaseURL: srv.URL, APIKey: "bad", MerchantID: "m"})
	_, err := NewMobiMatterSource(client, fastRetry).FetchProducts(context.Background())
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, 1, calls)
}
