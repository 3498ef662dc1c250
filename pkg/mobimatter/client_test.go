package mobimatter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wrappedPayload = `{"statusCode":200,"result":[{
	"productId":"MM-JP-1GB-7D",
	"productFamilyName":"Japan",
	"providerName":"Zed",
	"countries":["JP"],
	"wholesalePrice":8.0,
	"currencyCode":"USD",
	"productDetails":[
		{"name":"PLAN_TITLE","value":"Japan 1GB 7 Days"},
		{"name":"PLAN_DATA_LIMIT","value":"1"},
		{"name":"PLAN_DATA_UNIT","value":"GB"},
		{"name":"PLAN_VALIDITY","value":"168"}
	]}]}`

func TestGetProductsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/products", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("api-key"))
		assert.Equal(t, "merchant", r.Header.Get("merchantId"))
		_, _ = w.Write([]byte(wrappedPayload))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key", MerchantID: "merchant"})
	products, raw, err := c.GetProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.NotEmpty(t, raw)

	p := products[0]
	assert.Equal(t, "MM-JP-1GB-7D", p.ProductID)
	assert.Equal(t, "Japan 1GB 7 Days", p.Title())

	mb, err := p.DataMB()
	require.NoError(t, err)
	assert.Equal(t, 1024, mb)

	days, err := p.ValidityDays()
	require.NoError(t, err)
	assert.Equal(t, 7, days)
}

func TestGetProductsBareList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"productId":"A","countries":["MN"]},{"productId":"B"}]`))
	}))
	defer srv.Close()

	products, _, err := NewClient(Config{BaseURL: srv.URL}).GetProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestGetProductsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	_, _, err := NewClient(Config{BaseURL: srv.URL}).GetProducts(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.HTTPStatus())
}

func TestProductDataMB(t *testing.T) {
	cases := []struct {
		name    string
		limit   string
		unit    string
		want    int
		wantErr bool
	}{
		{"gigabytes", "3", "GB", 3072, false},
		{"fractional gigabytes", "0.5", "GB", 512, false},
		{"megabytes", "500", "MB", 500, false},
		{"unlimited unit", "", "Unlimited", -1, false},
		{"unlimited sentinel", "-1", "GB", -1, false},
		{"garbage", "lots", "GB", 0, true},
		{"unknown unit", "1", "TB", 0, true},
		{"empty limit", "", "GB", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Product{ProductID: "X", ProductDetails: []ProductDetail{
				{Name: DetailDataLimit, Value: tc.limit},
				{Name: DetailDataUnit, Value: tc.unit},
			}}
			got, err := p.DataMB()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestProductDataMBRequiresLimitDetail(t *testing.T) {
	p := Product{ProductID: "X", ProductDetails: []ProductDetail{
		{Name: DetailValidityHours, Value: "168"},
	}}
	_, err := p.DataMB()
	assert.Error(t, err)
}

func TestProductValidityDaysRoundsUp(t *testing.T) {
	p := Product{ProductDetails: []ProductDetail{{Name: DetailValidityHours, Value: "36"}}}
	days, err := p.ValidityDays()
	require.NoError(t, err)
	assert.Equal(t, 2, days)

	p = Product{ProductDetails: []ProductDetail{{Name: DetailValidityHours, Value: "0"}}}
	_, err = p.ValidityDays()
	assert.Error(t, err)
}
