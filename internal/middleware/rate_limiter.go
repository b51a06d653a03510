package middleware

import (
	"net/http"
	"time"

	"project-board-api/internal/cache"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter throttles each client IP with its own token bucket. Buckets of
// IPs idle for longer than idleTTL are forgotten.
func RateLimiter(visitors cache.Cache[string, *rate.Limiter], r rate.Limit, b int, idleTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := visitors.GetOrCreate(c.ClientIP(), idleTTL, func() *rate.Limiter {
			return rate.NewLimiter(r, b)
		})
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
