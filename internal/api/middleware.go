package api

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/ratelimit"
)

// RateLimit rejects clients that exceed their token bucket or daily cap,
// keyed by client IP. A nil limiter lets every request through.
func RateLimit(limiter *ratelimit.KeyedLimiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		decision := limiter.Allow(c.ClientIP())
		if decision.Allowed {
			c.Next()
			return
		}

		retryAfter := max(int(math.Ceil(decision.RetryAfter.Seconds())), 1)
		slog.WarnContext(c.Request.Context(), "Client rate limited",
			"client_ip", c.ClientIP(),
			"limiter", decision.Limiter,
			"retry_after", retryAfter)
		m.RecordHTTPError("rate_limited", c.FullPath())

		lang := requestLanguage(c, c.Query("language"))
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": i18n.T(lang, i18n.MsgTooManyRequests)})
	}
}
