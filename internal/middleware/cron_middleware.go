package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/utils"
)

// CronMiddleware guards scheduler endpoints with a shared secret, sent as
// "Authorization: Bearer <secret>" or "?secret=<secret>".
type CronMiddleware struct {
	secret   string
	failures *FailureLimiter
}

func NewCronMiddleware(secret string) *CronMiddleware {
	return &CronMiddleware{secret: secret, failures: NewFailureLimiter(maxInvalidAttempts, invalidAttemptWindow)}
}

func (m *CronMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if m.failures.Blocked(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many invalid authentication attempts"})
			return
		}
		if utils.SecretEqual(cronSecret(c), m.secret) {
			c.Next()
			return
		}

		m.failures.Record(ip)
		log.Warn().Str("ip", ip).Str("path", c.Request.URL.Path).Msg("Rejected cron request")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
	}
}

func cronSecret(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("secret")
}
