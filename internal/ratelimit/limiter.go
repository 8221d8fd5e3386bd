// Package ratelimit paces outbound calls to the card database so that no two
// requests start closer together than a fixed interval, regardless of which
// identification run issued them.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing between card database requests
const DefaultInterval = 100 * time.Millisecond

// Clock abstracts time so tests can drive the limiter deterministically
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Limiter is created once per process and shared by every catalog client
type Limiter struct {
	mu       sync.Mutex
	clock    Clock
	interval time.Duration
	limiter  *rate.Limiter
	last     time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New creates a limiter enforcing interval between calls. A non-positive
// interval falls back to DefaultInterval.
func New(interval time.Duration, opts ...Option) *Limiter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	l := &Limiter{
		clock:    realClock{},
		interval: interval,
		// the extra nanosecond absorbs the truncation of rate's float
		// token math, which can shorten a scheduled delay by up to 1ns
		limiter: rate.NewLimiter(rate.Every(interval+time.Nanosecond), 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Wait blocks until a call may be issued. Pacing comes from a token bucket
// of burst 1 refilled once per interval, reserved against the injected
// clock. The lock is held across the sleep so waiting callers queue one
// behind the other instead of sharing a window.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	reservation := l.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		if err := l.clock.Sleep(ctx, delay); err != nil {
			reservation.CancelAt(l.clock.Now())
			return err
		}
	}
	l.last = now.Add(delay)
	return nil
}

// Last returns the time of the most recent call, zero before the first one
func (l *Limiter) Last() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Interval returns the enforced spacing
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
