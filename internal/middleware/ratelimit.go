package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// RateLimit throttles requests per client IP and reports the window in
// X-RateLimit-* headers.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		logger := GetLoggerFromCtx(c.Request.Context())

		window, err := l.Get(c.Request.Context(), key)
		if err != nil {
			// Fail open.
			logger.Error("Rate limit store unavailable", slog.String("key", key), slog.String("error", err.Error()))
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(window.Limit, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(window.Remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(window.Reset, 10))

		if window.Reached {
			retry := time.Until(time.Unix(window.Reset, 0)).Round(time.Second)
			if retry < time.Second {
				retry = time.Second
			}
			h.Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
			logger.Warn("Rate limit exceeded", slog.String("key", key), slog.Int64("limit", window.Limit))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
