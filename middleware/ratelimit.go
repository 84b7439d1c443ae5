package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"docstore-platform/internal/logger"
	"docstore-platform/utils"
)

// RateLimit applies a fixed-window per-IP limit backed by Redis. Redis
// failures fail open: losing rate limiting is preferable to refusing all
// traffic.
func RateLimit(rdb *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()
		ctx := c.Request.Context()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("Rate limit check failed", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, window)
		}
		if count > int64(maxRequests) {
			utils.RespondWithError(c, http.StatusTooManyRequests,
				"rate_limited",
				"Too many requests, please slow down",
				gin.H{"retry_after_seconds": int(window.Seconds())})
			c.Abort()
			return
		}
		c.Next()
	}
}
