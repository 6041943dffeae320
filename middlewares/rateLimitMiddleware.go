package middlewares

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/config"
)

// RateLimitMiddleware is a fixed one-minute window per client IP kept in redis.
// It lets everything through when limit is 0 or redis is not connected.
func RateLimitMiddleware(limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		rdb := config.GetRedisDB()
		if limit <= 0 || rdb == nil {
			c.Next()
			return
		}
		window := time.Now().Unix() / 60
		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), window)

		ctx := c.Request.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			config.LogError(config.GetLogger(), "middlewares", "RateLimitMiddleware", "incr", key, err)
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, time.Minute)
		}
		if count > int64(limit) {
			c.Header("Retry-After", strconv.FormatInt(60-time.Now().Unix()%60, 10))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
