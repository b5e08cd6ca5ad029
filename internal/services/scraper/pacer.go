package scraper

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer enforces a minimum delay plus random jitter between consecutive
// page visits, shared across workers so the portal sees one paced stream
// of requests rather than bursts.
type Pacer struct {
	delay  time.Duration
	jitter time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewPacer creates a pacer with the given base delay and jitter bound.
func NewPacer(delay, jitter time.Duration) *Pacer {
	return &Pacer{
		delay:  delay,
		jitter: jitter,
	}
}

// Wait blocks until the pacing slot is reached or the context is
// cancelled. Each caller claims the next slot under the lock, so waits are
// deliberate bounded sleeps, not busy-polling.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	start := p.next
	if start.Before(now) {
		start = now
	}

	gap := p.delay
	if p.jitter > 0 {
		gap += time.Duration(rand.Int63n(int64(p.jitter)))
	}
	p.next = start.Add(gap)
	p.mu.Unlock()

	wait := time.Until(start)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
