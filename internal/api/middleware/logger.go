package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/logger"
)

// Logger writes one line per request. 5xx responses log at error level.
func Logger(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		user := c.GetString(UserIDKey)
		switch {
		case status >= 500:
			logger.Error("%s %s %d %s ip=%s user=%s errors=%s", c.Request.Method, path, status, latency, c.ClientIP(), user, c.Errors.String())
		case status >= 400:
			logger.Warn("%s %s %d %s ip=%s user=%s", c.Request.Method, path, status, latency, c.ClientIP(), user)
		default:
			logger.Info("%s %s %d %s ip=%s user=%s", c.Request.Method, path, status, latency, c.ClientIP(), user)
		}
	}
}
