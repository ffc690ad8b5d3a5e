package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Pacer spaces successive operations by a random delay drawn from
// [lo, hi]. The first Wait returns immediately. The delay runs from the
// later of the previous Wait and the previous Done, so calling Done when an
// operation finishes keeps slow operations from eating the pause.
// It is safe for concurrent use by multiple goroutines.
type Pacer struct {
	lo, hi time.Duration

	mu   sync.Mutex
	last time.Time
	rnd  func() float64
}

// NewPacer creates a pacer with the given delay bounds. If hi is <= 0 the
// pacer never blocks. A lo above hi is clamped to hi.
func NewPacer(lo, hi time.Duration) *Pacer {
	if lo < 0 {
		lo = 0
	}
	if lo > hi {
		lo = hi
	}
	return &Pacer{lo: lo, hi: hi, rnd: rand.Float64}
}

// Delay returns the next randomized spacing.
func (p *Pacer) Delay() time.Duration {
	if p.hi <= 0 {
		return 0
	}
	span := p.hi - p.lo
	return p.lo + time.Duration(float64(span)*p.rnd())
}

// Wait blocks until a fresh delay has elapsed since the previous operation,
// or until the context is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.hi <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	var sleep time.Duration
	now := time.Now()
	if !p.last.IsZero() {
		next := p.last.Add(p.Delay())
		if next.After(now) {
			sleep = next.Sub(now)
		}
	}
	p.last = now.Add(sleep)
	p.mu.Unlock()

	if sleep <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(sleep)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Done marks the end of the current operation. The next Wait sleeps a fresh
// delay counted from now.
func (p *Pacer) Done() {
	p.mu.Lock()
	if now := time.Now(); now.After(p.last) {
		p.last = now
	}
	p.mu.Unlock()
}

// Reset forgets the previous operation so the next Wait returns immediately.
func (p *Pacer) Reset() {
	p.mu.Lock()
	p.last = time.Time{}
	p.mu.Unlock()
}
