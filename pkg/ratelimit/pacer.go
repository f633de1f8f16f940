package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Pacer spaces out requests per host with one token bucket per host name.
type Pacer struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewPacer allows requestsPerSecond per host with the given burst. A
// non-positive rate disables pacing.
func NewPacer(requestsPerSecond float64, burst int) *Pacer {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Pacer{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Wait blocks until a request to host may proceed or ctx is done.
func (p *Pacer) Wait(ctx context.Context, host string) error {
	if err := p.limiterFor(host).Wait(ctx); err != nil {
		return fmt.Errorf("waiting for %s: %w", host, err)
	}
	return nil
}

func (p *Pacer) limiterFor(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(p.limit, p.burst)
	p.limiters[host] = l
	return l
}
