package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// UnlockRateLimit slows PIN brute force at the terminal: at most maxAttempts
// unlock calls per client IP inside the window. Counting errors fail open —
// a dead Redis must not keep customers out of their lockers.
func UnlockRateLimit(rdb *redis.Client, maxAttempts int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "unlock:attempts:" + c.ClientIP()

		n, err := rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			c.Next()
			return
		}
		if n == 1 {
			_ = rdb.Expire(c.Request.Context(), key, window).Err()
		}
		if n > maxAttempts {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, H{"error": "too many attempts, try again later"})
			return
		}
		c.Next()
	}
}
