package server

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"go.uber.org/zap"
)

// rateLimiter is a fixed-window counter per key.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time
	mu     sync.Mutex
	items  map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{
		limit:  limit,
		window: window,
		now:    func() time.Time { return time.Now().UTC() },
		items:  make(map[string]*rateLimitEntry),
	}
}

func (r *rateLimiter) Allow(key string) bool {
	if key == "" {
		return false
	}
	if r.limit <= 0 {
		return true
	}

	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.items[key]
	if entry == nil || now.Sub(entry.windowStart) > r.window {
		r.prune(now)
		entry = &rateLimitEntry{windowStart: now}
		r.items[key] = entry
	}

	if entry.count >= r.limit {
		return false
	}

	entry.count++
	return true
}

// prune drops expired windows. Callers hold mu.
func (r *rateLimiter) prune(now time.Time) {
	for key, entry := range r.items {
		if now.Sub(entry.windowStart) > r.window {
			delete(r.items, key)
		}
	}
}

// PaymentRateLimit caps payment recordings per user.
func (s *Server) PaymentRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := usercontext.UserIDFromContext(c.Request.Context())
		if !s.paymentLimit.Allow(userID) {
			s.log.Warn("payment rate limit exceeded", zap.String("user_id", userID))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
