package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Call kinds issued against the ledger.
const (
	CallQuery   = "query"
	CallTicket  = "ticket"
	CallBooking = "booking"
)

// CallLimiter holds one token bucket per ledger call kind, so a burst of
// ticket lookups from a wide search cannot starve a booking.
type CallLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	defaults RateLimitConfig
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func NewCallLimiter(config RateLimitConfig) *CallLimiter {
	return &CallLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: config,
	}
}

func (c *CallLimiter) Limiter(kind string) *rate.Limiter {
	c.mu.RLock()
	limiter, exists := c.limiters[kind]
	c.mu.RUnlock()

	if exists {
		return limiter
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if limiter, exists = c.limiters[kind]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(c.defaults.RequestsPerSecond), c.defaults.BurstSize)
	c.limiters[kind] = limiter
	return limiter
}

func (c *CallLimiter) SetLimit(kind string, rps float64, burst int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.limiters[kind] = rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until a call of the given kind may proceed. A nil limiter
// never blocks.
func (c *CallLimiter) Wait(ctx context.Context, kind string) error {
	if c == nil {
		return ctx.Err()
	}
	return c.Limiter(kind).Wait(ctx)
}
