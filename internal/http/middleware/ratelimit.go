package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/tiaocarreiro/top5/pkg"
	"github.com/tiaocarreiro/top5/pkg/logger"
)

// RateLimit caps requests per client IP within a fixed window, counting in
// Redis. Fails open when the counter store is unavailable; limiting protects
// against abuse, it is not a correctness guarantee.
func RateLimit(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), c.ClientIP())

		n, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn(ctx, "rate limit counter unavailable: %v", err)
			c.Next()
			return
		}
		if n == 1 {
			_ = client.Expire(ctx, key, window).Err()
		} else if ttl, err := client.TTL(ctx, key).Result(); err == nil && ttl < 0 {
			// A failed EXPIRE after the first INCR would leave the counter
			// without a TTL, throttling the client forever. Re-arm it.
			_ = client.Expire(ctx, key, window).Err()
		}
		if n > int64(limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, pkg.Fail("too many requests, slow down"))
			return
		}
		c.Next()
	}
}
