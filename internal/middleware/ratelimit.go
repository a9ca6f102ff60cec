package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	RPS   float64
	Burst int
	// TTL is how long an idle client's bucket is kept.
	TTL time.Duration
}

// RateLimiter keeps one token bucket per client IP. Idle buckets expire
// from the cache.
type RateLimiter struct {
	clients *cache.Cache
	limit   rate.Limit
	burst   int
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients: cache.New(ttl, 2*ttl),
		limit:   rate.Limit(config.RPS),
		burst:   burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := rl.clients.Get(key); ok {
		rl.clients.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	// Add fails when another request created the bucket first.
	if err := rl.clients.Add(key, l, cache.DefaultExpiration); err != nil {
		if v, ok := rl.clients.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests"})
			return
		}
		c.Next()
	}
}
