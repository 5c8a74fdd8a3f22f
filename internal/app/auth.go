package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/uonline/internal/metrics"
)

const metricsRealm = `Basic realm="uonline metrics"`

// metricsAuthMiddleware guards /metrics with Basic Auth when enabled.
// Rejected scrapes are counted as "unauthorized" HTTP errors.
func metricsAuthMiddleware(enabled bool, username, password string, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if ok && credentialsMatch(user, pass, username, password) {
			c.Next()
			return
		}

		m.RecordHTTPError("unauthorized", c.FullPath())
		c.Header("WWW-Authenticate", metricsRealm)
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}

// credentialsMatch compares both fields in constant time.
func credentialsMatch(user, pass, wantUser, wantPass string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser))
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass))
	return userMatch&passMatch == 1
}
