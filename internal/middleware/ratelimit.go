package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sensekit/behavior-engine-go/pkg/response"
)

// RateLimiter admits at most limit requests per client within a sliding
// window. Idle clients are dropped by a background sweep so the map
// stays bounded by the set of recently active IPs.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
}

// NewRateLimiter builds a limiter and starts its sweep loop.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.mu.Lock()
		for client, hits := range rl.hits {
			kept := pruneOld(hits, now, rl.window)
			if len(kept) == 0 {
				delete(rl.hits, client)
			} else {
				rl.hits[client] = kept
			}
		}
		rl.mu.Unlock()
	}
}

func pruneOld(hits []time.Time, now time.Time, window time.Duration) []time.Time {
	var kept []time.Time
	for _, h := range hits {
		if now.Sub(h) < window {
			kept = append(kept, h)
		}
	}
	return kept
}

// Allow reports whether one more request from client fits the window,
// recording it when admitted.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	kept := pruneOld(rl.hits[client], now, rl.window)
	if len(kept) >= rl.limit {
		rl.hits[client] = kept
		return false
	}
	rl.hits[client] = append(kept, now)
	return true
}

// RateLimit caps requests per client IP across a route group.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(limit, window)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}
		c.Next()
	}
}
