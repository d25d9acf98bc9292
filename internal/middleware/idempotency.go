package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const idempotencyLockTTL = 30 * time.Second

// Idempotency guards POST endpoints against duplicate submissions that
// carry the same Idempotency-Key header. The first request takes a
// short-lived Redis lock; a duplicate arriving while the lock is held
// is answered with 409 instead of running the handler again.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		username := c.GetString("username")
		lockKey := fmt.Sprintf("idemp:%s:%s:%s:lock", c.FullPath(), username, idempKey)

		isNew, err := rdb.SetNX(c.Request.Context(), lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			// Redis being down must not block writes.
			c.Next()
			return
		}
		if !isNew {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"code":    "DUPLICATE_REQUEST",
				"message": "A request with this idempotency key is already being processed",
			})
			return
		}

		c.Next()
	}
}
