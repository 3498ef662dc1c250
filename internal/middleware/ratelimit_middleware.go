package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/utils"
)

const (
	maxInvalidAttempts   = 5
	invalidAttemptWindow = time.Minute
)

// FailureLimiter blocks a key (client IP) after too many failed
// authentication attempts inside a sliding window.
type FailureLimiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	now       func() time.Time
	failures  map[string][]time.Time
	lastSweep time.Time
}

func NewFailureLimiter(max int, window time.Duration) *FailureLimiter {
	return &FailureLimiter{
		max:      max,
		window:   window,
		now:      time.Now,
		failures: make(map[string][]time.Time),
	}
}

// Blocked reports whether key has reached the failure limit.
func (l *FailureLimiter) Blocked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(key, l.now())) >= l.max
}

// Record registers one failed attempt for key.
func (l *FailureLimiter) Record(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.failures[key] = append(l.recent(key, now), now)
	if now.Sub(l.lastSweep) > 5*l.window {
		l.sweep(now)
	}
}

// recent trims expired failures for key. Callers hold mu.
func (l *FailureLimiter) recent(key string, now time.Time) []time.Time {
	hits := l.failures[key]
	i := 0
	for i < len(hits) && now.Sub(hits[i]) > l.window {
		i++
	}
	hits = hits[i:]
	if len(hits) == 0 {
		delete(l.failures, key)
		return nil
	}
	l.failures[key] = hits
	return hits
}

func (l *FailureLimiter) sweep(now time.Time) {
	for key := range l.failures {
		l.recent(key, now)
	}
	l.lastSweep = now
}

// LimitFailedLogins rejects clients that keep failing a login handler.
// A 401 written by the handler counts as a failure.
func LimitFailedLogins(l *FailureLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if l.Blocked(ip) {
			log.Warn().Str("ip", ip).Str("path", c.Request.URL.Path).Msg("Login blocked after repeated failures")
			utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many failed login attempts")
			c.Abort()
			return
		}
		c.Next()
		if c.Writer.Status() == http.StatusUnauthorized {
			l.Record(ip)
		}
	}
}
