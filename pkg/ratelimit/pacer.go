package ratelimit

import (
	"context"
	"time"
)

// Limiter defines the interface for pacing requests to a remote host
type Limiter interface {
	// Wait blocks until the next request may go out, or ctx is done
	Wait(ctx context.Context) error
}

// SleepFunc pauses for d unless ctx ends first
type SleepFunc func(ctx context.Context, d time.Duration) error

// Pacer enforces a fixed politeness delay. Each call to Wait pauses for the
// configured interval; a zero interval disables pacing. Species are scraped
// one at a time, so a Pacer is used from a single goroutine.
type Pacer struct {
	interval time.Duration
	sleep    SleepFunc
}

// NewPacer creates a pacer that sleeps for interval on every Wait
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval, sleep: sleepContext}
}

// WithSleep replaces the sleep function, mainly for tests
func (p *Pacer) WithSleep(fn SleepFunc) *Pacer {
	p.sleep = fn
	return p
}

func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, p.interval)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
