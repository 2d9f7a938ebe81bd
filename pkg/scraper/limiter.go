package scraper

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRequestDelay is the minimum spacing between two fetches.
const DefaultRequestDelay = time.Second

// Pacer enforces a minimum interval before every fetch
type Pacer struct {
	interval time.Duration

	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewPacer returns a Pacer allowing one fetch per interval. The first Wait
// is paced as well. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	p := &Pacer{interval: interval}
	p.Reset()
	return p
}

// Reset empties the bucket so the next Wait blocks a full interval from now.
func (p *Pacer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interval <= 0 {
		p.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	l := rate.NewLimiter(rate.Every(p.interval), 1)
	l.Allow()
	p.limiter = l
}

// Wait blocks until the next fetch may start
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	l := p.limiter
	p.mu.Unlock()
	return l.Wait(ctx)
}
