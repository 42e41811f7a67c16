package fetcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DomainLimiter spaces requests to the same domain by at least delay. One
// token bucket (burst 1) is kept per domain; reservations are taken under the
// bucket's own lock so two workers cannot both pass inside one interval.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	delay    time.Duration
}

// NewDomainLimiter returns a limiter with the given per-domain delay. A zero
// delay disables limiting.
func NewDomainLimiter(delay time.Duration) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		delay:    delay,
	}
}

func (d *DomainLimiter) get(domain string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[domain]
	if !ok {
		l = rate.NewLimiter(rate.Every(d.delay), 1)
		d.limiters[domain] = l
	}
	return l
}

// Wait blocks until a request to domain may proceed or ctx is done.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	if d == nil || d.delay <= 0 || domain == "" {
		return nil
	}
	return d.get(domain).Wait(ctx)
}

// Domains returns how many domains have been seen.
func (d *DomainLimiter) Domains() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.limiters)
}
