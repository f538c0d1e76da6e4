package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// MoveRateLimit limits move submissions per identity (not per IP).
// Requires JWT to run before it. Uses Redis when available, memory otherwise.
func MoveRateLimit(maxMoves int, window time.Duration) gin.HandlerFunc {
	fallback := newWindowCounter()
	return func(c *gin.Context) {
		identity := c.GetString(IdentityKey)
		if identity == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var (
			val int64
			ok  bool
		)
		if redisClient != nil {
			key := "move_rl:" + identity + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
			val, ok = incrWindow(c.Request.Context(), key, window)
		}
		if !ok {
			val = int64(fallback.hit(identity, window))
		}

		c.Header("X-MoveRateLimit-Limit", strconv.Itoa(maxMoves))
		c.Header("X-MoveRateLimit-Remaining", strconv.FormatInt(max(0, int64(maxMoves)-val), 10))

		if val > int64(maxMoves) {
			RLBlocked.WithLabelValues("move").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "move rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues("move").Inc()
		c.Next()
	}
}
