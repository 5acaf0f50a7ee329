// ===========================================
// Rate Limiting
// ===========================================
// Fixed window counter on Redis INCR:
//
// 1. Key = "ratelimit:{client}:{minute}"
// 2. INCR key → current count
// 3. If count == 1, set expiry to the window size
// 4. If count > limit, reject with a 429 problem
//
// Without Redis there is no limiting at all.
// ===========================================

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/halrest/internal/database"
	"github.com/user/halrest/pkg/problem"
)

// Counter counts requests per key and window. *database.RedisDB
// implements it.
type Counter interface {
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error)
}

var _ Counter = (*database.RedisDB)(nil)

// RateLimiter is the middleware for rate limiting.
type RateLimiter struct {
	counter    Counter
	limit      int
	windowSize time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewRateLimiter creates a new rate limiter middleware. A nil counter or a
// limit below 1 disables limiting.
func NewRateLimiter(counter Counter, limit int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		counter:    counter,
		limit:      limit,
		windowSize: time.Minute,
		logger:     logger,
		now:        time.Now,
	}
}

// Middleware returns the Gin middleware handler.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.counter == nil || rl.limit < 1 {
			c.Next()
			return
		}

		window := rl.now().Truncate(rl.windowSize)
		key := database.RateLimitKey(clientIdentifier(c), window)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := rl.counter.IncrementRateLimit(ctx, key, rl.windowSize)
		if err != nil {
			// Redis error - fail open (allow request)
			rl.logger.WarnContext(c.Request.Context(), "rate limit check failed", "error", err)
			c.Next()
			return
		}

		// These help clients understand their limits
		reset := window.Add(rl.windowSize)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, rl.limit-int(count))))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if int(count) > rl.limit {
			retryAfter := int(reset.Sub(rl.now()).Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			abortWithProblem(c, problem.New(http.StatusTooManyRequests,
				fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", retryAfter)))
			return
		}

		c.Next()
	}
}

// clientIdentifier returns the client IP used as the rate limit key.
//
// SECURITY NOTE:
// X-Forwarded-For can be spoofed! Only trust it behind a proxy that
// overwrites it.
func clientIdentifier(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		// "client, proxy1, proxy2" - the first one is the original client
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.ClientIP()
}
