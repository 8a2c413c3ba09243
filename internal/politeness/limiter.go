// Package politeness implements per-host request pacing for the crawl
// engine, per spec §5's "rateLimitMs (minimum inter-request delay) applied
// in the fetch executor" rule. Grounded on the teacher's
// internal/services/crawler/rate_limiter.go per-domain map shape,
// reimplemented on golang.org/x/time/rate's token bucket instead of
// hand-rolled timer math.
package politeness

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum inter-request delay per host.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// NewLimiter builds a Limiter whose default minimum delay between requests
// to the same host is interval. A zero or negative interval disables
// limiting (Wait always returns immediately).
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Wait blocks until the per-host rate limit for rawURL's host is
// satisfied, or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	if l.interval <= 0 {
		return nil
	}
	host := extractHost(rawURL)
	if host == "" {
		return nil
	}
	return l.forHost(host).Wait(ctx)
}

// SetHostInterval overrides the minimum delay for one host, e.g. when a
// sequence-config step carries a per-domain override.
func (l *Limiter) SetHostInterval(host string, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[host] = rate.NewLimiter(rate.Every(interval), 1)
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[host] = lim
	}
	return lim
}

func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
