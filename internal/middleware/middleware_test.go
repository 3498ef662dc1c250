package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/GTDGit/esim_api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func cronRouter(secret string) *gin.Engine {
	r := gin.New()
	r.GET("/api/cron/ping", NewCronMiddleware(secret).Handle(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func TestCronMiddleware(t *testing.T) {
	r := cronRouter("topsecret")

	tests := []struct {
		name   string
		url    string
		header string
		want   int
	}{
		{"bearer", "/api/cron/ping", "Bearer topsecret", http.StatusOK},
		{"query", "/api/cron/ping?secret=topsecret", "", http.StatusOK},
		{"wrong bearer", "/api/cron/ping", "Bearer nope", http.StatusUnauthorized},
		{"missing", "/api/cron/ping", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/cron/ping", "Basic topsecret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"success":false,"error":"Unauthorized"}`, w.Body.String())
			}
		})
	}
}

func TestCronMiddlewareRateLimitsInvalidAttempts(t *testing.T) {
	r := cronRouter("topsecret")

	var last int
	for i := 0; i < maxInvalidAttempts+1; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/cron/ping?secret=bad", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestJWTMiddlewareAndRole(t *testing.T) {
	jwt := utils.NewJWTManager("secret", time.Hour)
	r := gin.New()
	r.GET("/admin", NewJWTMiddleware(jwt).Handle(), RequireRole("admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": c.GetString("role")})
	})

	do := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	adminToken, _, err := jwt.Generate(1, "a@esim.mn", "admin")
	assert.NoError(t, err)
	viewerToken, _, err := jwt.Generate(2, "v@esim.mn", "viewer")
	assert.NoError(t, err)

	assert.Equal(t, http.StatusOK, do("Bearer "+adminToken))
	assert.Equal(t, http.StatusForbidden, do("Bearer "+viewerToken))
	assert.Equal(t, http.StatusUnauthorized, do("Bearer garbage"))
	assert.Equal(t, http.StatusUnauthorized, do(""))
}

func TestFailureLimiterWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewFailureLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.False(t, l.Blocked("ip"))
	l.Record("ip")
	l.Record("ip")
	assert.True(t, l.Blocked("ip"))
	assert.False(t, l.Blocked("other"))

	now = now.Add(61 * time.Second)
	assert.False(t, l.Blocked("ip"))
}

func TestLimitFailedLogins(t *testing.T) {
	l := NewFailureLimiter(2, time.Minute)
	r := gin.New()
	r.POST("/login", LimitFailedLogins(l), func(c *gin.Context) {
		if c.Query("ok") == "1" {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusUnauthorized)
	})

	do := func(url string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, url, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("/login?ok=1"))
	assert.Equal(t, http.StatusUnauthorized, do("/login"))
	assert.Equal(t, http.StatusUnauthorized, do("/login"))
	assert.Equal(t, http.StatusTooManyRequests, do("/login?ok=1"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"esim.mn", "localhost:3000"}))
	r.GET("/v1/products", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(method, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/v1/products", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodGet, "https://esim.mn:443")
	assert.Equal(t, "https://esim.mn:443", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(http.MethodGet, "http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(http.MethodGet, "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = do(http.MethodOptions, "https://esim.mn")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
}
