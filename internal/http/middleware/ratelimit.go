package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	last  time.Time
	count int
}

// windowCounter is an in-memory fixed window counter keyed by client
type windowCounter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
}

func newWindowCounter() *windowCounter {
	return &windowCounter{clients: make(map[string]*clientInfo)}
}

// hit counts one request for key and returns the count inside the current window
func (w *windowCounter) hit(key string, window time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	ci, ok := w.clients[key]
	if !ok || now.Sub(ci.last) > window {
		w.clients[key] = &clientInfo{last: now, count: 1}
		return 1
	}
	ci.count++
	return ci.count
}

// SimpleRateLimit blocks clients that send more than maxRequests per window
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	counter := newWindowCounter()
	return func(c *gin.Context) {
		if counter.hit(c.ClientIP(), window) > maxRequests {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
