package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	m := NewJWTManager("s3cret", time.Hour)

	token, exp, err := m.Generate(7, "ops@example.com", "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestJWTManagerRejectsForeignSecret(t *testing.T) {
	token, _, err := NewJWTManager("one", time.Hour).Generate(1, "a@b.c", "admin")
	require.NoError(t, err)

	_, err = NewJWTManager("two", time.Hour).Validate(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestGenerateOrderID(t *testing.T) {
	id, err := GenerateOrderID()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ESM-\d{8}-[0-9A-F]{8}$`), id)
}

func TestSecretEqual(t *testing.T) {
	assert.True(t, SecretEqual("abc", "abc"))
	assert.False(t, SecretEqual("abd", "abc"))
	assert.False(t, SecretEqual("", ""))
}

func TestRespondErrorMapsDomainErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		code int
		want string
	}{
		{fmt.Errorf("lookup: %w", ErrProductNotFound), http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{ErrInvalidStatusTransition, http.StatusConflict, "INVALID_STATUS_TRANSITION"},
		{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
			c.Set("request_id", "abcd1234")

			RespondError(c, tt.err)

			assert.Equal(t, tt.code, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.want, resp.Error.Code)
			assert.Equal(t, "abcd1234", resp.Meta.RequestID)
		})
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 101)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, 3, p.TotalPages)
}
