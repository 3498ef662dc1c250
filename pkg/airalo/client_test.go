package airalo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		_ = r.ParseForm()
		if r.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"access_token":"tok","token_type":"Bearer","expires_in":3600}}`))
	})
	mux.HandleFunc("/v2/packages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		page := r.URL.Query().Get("page")
		_, _ = fmt.Fprintf(w, `{"data":[{"slug":"japan-%[1]s","country_code":"JP","operators":[{"title":"Moshi","countries":[{"country_code":"JP"}],"packages":[
			{"id":"moshi-%[1]s-1gb","type":"sim","price":4.5,"amount":1024,"day":7,"is_unlimited":false},
			{"id":"moshi-%[1]s-topup","type":"topup","price":3,"amount":1024,"day":7}
		]}]}],"meta":{"current_page":%[1]s,"last_page":2}}`, page)
	})
	return httptest.NewServer(mux)
}

func TestGetPackagesWalksPages(t *testing.T) {
	var tokenCalls int32
	srv := newTestServer(t, &tokenCalls)
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"})
	packages, raw, err := c.GetPackages(context.Background())
	require.NoError(t, err)
	require.Len(t, packages, 2)
	assert.NotEmpty(t, raw)

	assert.Equal(t, "moshi-1-1gb", packages[0].ID)
	assert.Equal(t, "moshi-2-1gb", packages[1].ID)
	assert.Equal(t, []string{"JP"}, packages[0].Countries)
	assert.Equal(t, "Moshi", packages[0].Operator)
	assert.EqualValues(t, 1, atomic.LoadInt32(&tokenCalls), "token is cached across pages")
}

func TestGetPackagesBadCredentials(t *testing.T) {
	var tokenCalls int32
	srv := newTestServer(t, &tokenCalls)
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "wrong"})
	_, _, err := c.GetPackages(context.Background())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestFlattenFallsBackToCountryCode(t *testing.T) {
	out := Flatten([]Country{{
		CountryCode: "MN",
		Operators: []Operator{{
			Title:    "Unitel",
			Packages: []Package{{ID: "unitel-1"}},
		}},
	}})
	require.Len(t, out, 1)
	assert.Equal(t, []string{"MN"}, out[0].Countries)
}
