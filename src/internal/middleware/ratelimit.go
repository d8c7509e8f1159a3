package middleware

import (
	"net/http"
	"sync"
	"time"

	"midway/src/internal/dispatch"
	"midway/src/internal/pool"

	"golang.org/x/time/rate"
)

// RateLimiter provides per-client request rate limiting. Clients are keyed
// by the X-Forwarded-For header; requests without one share a single bucket.
type RateLimiter struct {
	clients         sync.Map // map[string]*clientLimiter
	limit           rate.Limit
	burst           int
	cleanupInterval time.Duration
	done            chan struct{}
	stopOnce        sync.Once
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter allowing requestsPerSec sustained
// with the given burst. Idle client buckets are dropped periodically.
func NewRateLimiter(requestsPerSec float64, burst int, cleanupInterval time.Duration) *RateLimiter {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	rl := &RateLimiter{
		limit:           rate.Limit(requestsPerSec),
		burst:           burst,
		cleanupInterval: cleanupInterval,
		done:            make(chan struct{}),
	}

	go rl.cleanup()
	return rl
}

// Middleware returns the chain layer enforcing the limit. Over-limit
// requests fail with 429 before reaching downstream middleware.
func (rl *RateLimiter) Middleware() dispatch.Middleware {
	return func(ctx *pool.Context, next dispatch.Next) error {
		client := ctx.Header("X-Forwarded-For")
		if client == "" {
			client = "default"
		}

		if !rl.getLimiter(client).Allow() {
			return dispatch.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next()
	}
}

func (rl *RateLimiter) getLimiter(client string) *rate.Limiter {
	if val, ok := rl.clients.Load(client); ok {
		cl := val.(*clientLimiter)
		cl.lastSeen = time.Now()
		return cl.limiter
	}

	cl := &clientLimiter{
		limiter:  rate.NewLimiter(rl.limit, rl.burst),
		lastSeen: time.Now(),
	}
	actual, _ := rl.clients.LoadOrStore(client, cl)
	return actual.(*clientLimiter).limiter
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.removeIdleClients()
		}
	}
}

func (rl *RateLimiter) removeIdleClients() {
	threshold := time.Now().Add(-rl.cleanupInterval * 2)

	rl.clients.Range(func(key, value any) bool {
		if value.(*clientLimiter).lastSeen.Before(threshold) {
			rl.clients.Delete(key)
		}
		return true
	})
}

// Stop terminates the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.done)
	})
}
