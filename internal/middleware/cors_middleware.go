package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowHeaders = "Content-Type, Authorization, Accept, Origin, Cache-Control, X-Requested-With"
	corsAllowMethods = "GET, POST, PUT, OPTIONS"
)

// CORSMiddleware echoes the request origin back when its host is one of
// allowedHosts ("esim.mn", "localhost:3000"). Browsers that omit Origin on
// EventSource reconnects are matched on Referer instead.
func CORSMiddleware(allowedHosts []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		allowed[normalizeHost(h)] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := requestOrigin(c.Request)
		if origin != nil {
			if _, ok := allowed[normalizeHost(origin.Host)]; ok {
				c.Header("Access-Control-Allow-Origin", origin.Scheme+"://"+origin.Host)
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Vary", "Origin")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestOrigin(r *http.Request) *url.URL {
	raw := r.Header.Get("Origin")
	if raw == "" {
		raw = r.Header.Get("Referer")
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}

// normalizeHost lowercases h and drops default ports.
func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if host, port, ok := strings.Cut(h, ":"); ok && (port == "443" || port == "80") {
		return host
	}
	return h
}
