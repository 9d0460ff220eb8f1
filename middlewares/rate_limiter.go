package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter allows limit requests per client IP and route within each window.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]int
	limit    int
	window   time.Duration
	stop     chan struct{}
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {

	rl := &RateLimiter{
		visitors: make(map[string]int),
		limit:    limit,
		window:   window,
		stop:     make(chan struct{}),
	}
	go rl.resetLoop()
	return rl

}

func (rl *RateLimiter) resetLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			rl.visitors = make(map[string]int)
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) Stop() { close(rl.stop) }

func (rl *RateLimiter) Middleware() gin.HandlerFunc {

	return func(c *gin.Context) {
		key := c.ClientIP() + " " + c.FullPath()

		rl.mu.Lock()
		rl.visitors[key]++
		count := rl.visitors[key]
		rl.mu.Unlock()

		if count > rl.limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again after some time"})
			return
		}
		c.Next()
	}
}
