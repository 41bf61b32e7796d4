package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limiter decides whether one more request for key fits in the current window
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
}

// MemoryLimiter is a fixed-window limiter for a single instance
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
}

type window struct {
	count int
	start time.Time
}

// NewMemoryLimiter creates a MemoryLimiter
func NewMemoryLimiter(limit int, per time.Duration) *MemoryLimiter {
	return &MemoryLimiter{clients: make(map[string]*window), limit: limit, window: per, now: time.Now}
}

// Limit returns the number of requests allowed per window
func (l *MemoryLimiter) Limit() int { return l.limit }

// Allow counts a request for key
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{start: now}
		l.clients[key] = w
		// drop stale windows opportunistically
		if len(l.clients) > 10000 {
			for k, v := range l.clients {
				if now.Sub(v.start) >= l.window {
					delete(l.clients, k)
				}
			}
		}
	}
	if w.count >= l.limit {
		return false, 0, nil
	}
	w.count++
	return true, l.limit - w.count, nil
}

// RateLimit limits requests per organization and client IP. A limiter error
// lets the request through.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if org := c.GetHeader(OrganizationIDHeader); org != "" && len(org) <= 64 {
			key = org + ":" + key
		}

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.L(c.Request.Context()).Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			abortWithError(c, http.StatusTooManyRequests, "ERR_RATE_LIMITED", "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
