package middleware

import (
	"strconv"
	"time"

	"github.com/yamdb/yamdb/logger"
	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/util/metrics"
	"github.com/yamdb/yamdb/web/cache"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig configures rate limiting
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	KeyFunc  func(c *gin.Context) string
}

// DefaultRateLimitConfig limits by client IP per minute.
func DefaultRateLimitConfig(requests int) RateLimitConfig {
	return RateLimitConfig{
		Requests: requests,
		Window:   time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimitMiddleware counts requests per key and route in redis. A limit of
// zero or less disables it. When redis fails the request is let through.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.Requests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		route := c.FullPath()
		count, ttl, err := cache.Hit(c.Request.Context(), "ratelimit:"+key+":"+route, config.Window)
		if err != nil {
			logger.Warning("Rate limit increment failed:", err)
			c.Next()
			return
		}
		if ttl <= 0 {
			ttl = config.Window
		}

		remaining := config.Requests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if int(count) > config.Requests {
			logger.Warningf("Rate limit exceeded for %s on %s (count: %d)", key, route, count)
			metrics.RateLimitHits.Inc()
			c.Header("Retry-After", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
			_ = c.Error(common.ErrThrottled)
			c.Abort()
			return
		}
		c.Next()
	}
}
