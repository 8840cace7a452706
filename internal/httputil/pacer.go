// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer keeps a minimum pause between the end of one call to a provider and
// the start of the next. Calls through one Pacer are serialized; callers
// sharing a Pacer share the provider's budget.
type Pacer struct {
	interval time.Duration
	slot     chan struct{}

	// limiter is only touched while slot is held.
	limiter *rate.Limiter
}

// NewPacer returns a Pacer with the given pause. A non-positive interval
// disables pacing but still serializes calls.
func NewPacer(interval time.Duration) *Pacer {
	p := &Pacer{interval: interval, slot: make(chan struct{}, 1)}
	if interval <= 0 {
		p.limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return p
}

// Do waits until the pause since the previous call has elapsed, runs fn and
// starts a new pause when fn returns, whether or not it failed. It returns
// ctx's error without running fn when ctx ends first, otherwise fn's error.
func (p *Pacer) Do(ctx context.Context, fn func() error) error {
	if p == nil {
		return fn()
	}

	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slot }()

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	defer p.restart()
	return fn()
}

// restart drops any allowance that built up during the call, so the next
// call waits a full interval from now.
func (p *Pacer) restart() {
	if p.interval <= 0 {
		return
	}
	p.limiter = rate.NewLimiter(rate.Every(p.interval), 1)
	p.limiter.Allow()
}
