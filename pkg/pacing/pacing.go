// Package pacing injects randomized human-like delays between browser
// actions. Every pause is drawn uniformly from a configured window so
// consecutive requests never land on a fixed rhythm.
package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer produces uniformly distributed delays within [min, max].
type Pacer struct {
	min time.Duration
	max time.Duration
	rng *rand.Rand
	mu  sync.Mutex
}

// New creates a Pacer for the given delay window. A window where
// min == max degenerates to a fixed delay.
func New(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Pacer{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay returns the next randomized delay without sleeping.
func (p *Pacer) Delay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.max == p.min {
		return p.min
	}
	return p.min + time.Duration(p.rng.Int63n(int64(p.max-p.min)+1))
}

// Wait sleeps for one randomized delay or until the context is done,
// whichever comes first.
func (p *Pacer) Wait(ctx context.Context) error {
	delay := p.Delay()
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pace sleeps for one randomized delay and then runs the action. The
// action is skipped when the context is cancelled during the pause.
func (p *Pacer) Pace(ctx context.Context, action func(context.Context) error) error {
	if err := p.Wait(ctx); err != nil {
		return err
	}
	return action(ctx)
}
