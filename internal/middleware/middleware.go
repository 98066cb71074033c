package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// SubmitThrottle enforces a minimum gap between order submissions per
// client. Clients are keyed by the X-Client-ID header, falling back to the
// remote address. A zero gap disables the middleware entirely.
type SubmitThrottle struct {
	clients map[string]time.Time
	mu      sync.Mutex
	gap     time.Duration
}

func NewSubmitThrottle(gap time.Duration) *SubmitThrottle {
	return &SubmitThrottle{
		clients: make(map[string]time.Time),
		gap:     gap,
	}
}

func (t *SubmitThrottle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if t.gap <= 0 {
			c.Next()
			return
		}
		clientID := c.GetHeader("X-Client-ID")
		if clientID == "" {
			clientID = c.ClientIP()
		}
		t.mu.Lock()
		last, exists := t.clients[clientID]
		if exists && time.Since(last) < t.gap {
			t.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "submit throttle exceeded"})
			c.Abort()
			return
		}
		t.clients[clientID] = time.Now()
		t.mu.Unlock()
		c.Next()
	}
}
