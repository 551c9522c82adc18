package middlewares

import (
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobscout/jobscout/internal/apperrors"
	"github.com/jobscout/jobscout/internal/ratelimit"
)

type RateLimiter struct {
	store   ratelimit.Store
	limit   int
	window  time.Duration
	respond apperrors.Responder
}

func NewRateLimiter(store ratelimit.Store, limit int, window time.Duration, respond apperrors.Responder) *RateLimiter {
	return &RateLimiter{store: store, limit: limit, window: window, respond: respond}
}

// Middleware enforces the fixed-window limit for a derived key. A store
// failure fails open: traffic keeps flowing and the failure is logged.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		count, retryAfter, err := rl.store.Incr(c.Request.Context(), key, rl.window)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate limit store failure", "err", err)
			c.Next()
			return
		}

		if count > rl.limit {
			secs := int(retryAfter.Seconds())
			if secs < 0 {
				secs = 0
			}
			c.Header("Retry-After", strconv.Itoa(secs))

			rl.respond.Respond(c, apperrors.RateLimited("Too many requests. Please try again shortly."))
			return
		}

		c.Next()
	}
}

// For unauthenticated endpoints: rate limit by IP.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by user ID if available.
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
