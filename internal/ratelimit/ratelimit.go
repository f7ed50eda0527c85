// Package ratelimit spaces out browser work with randomized, human-looking delays.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

type RateLimiter interface {
	Wait(ctx context.Context) error
	SetDelay(min, max time.Duration)
}

// Jitter returns a random duration in [min, max). It returns min when the range is empty.
func Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SimpleRateLimiter guarantees a jittered gap between consecutive actions.
type SimpleRateLimiter struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func NewSimpleRateLimiter(minDelay, maxDelay time.Duration) *SimpleRateLimiter {
	return &SimpleRateLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

func (r *SimpleRateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastAction.IsZero() {
		if wait := Jitter(r.minDelay, r.maxDelay) - time.Since(r.lastAction); wait > 0 {
			if err := Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	r.lastAction = time.Now()
	return nil
}

func (r *SimpleRateLimiter) SetDelay(min, max time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.minDelay = min
	r.maxDelay = max
}

func (r *SimpleRateLimiter) Delay() (time.Duration, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minDelay, r.maxDelay
}

// AdaptiveRateLimiter widens the gap after repeated failures and narrows it
// again, down to the configured floor, after a run of successes.
type AdaptiveRateLimiter struct {
	*SimpleRateLimiter
	floorMin      time.Duration
	floorMax      time.Duration
	errorCount    int
	successCount  int
	maxErrorCount int
	backoffFactor float64
}

const (
	maxBackoffMin = 60 * time.Second
	maxBackoffMax = 120 * time.Second
)

func NewAdaptiveRateLimiter(minDelay, maxDelay time.Duration) *AdaptiveRateLimiter {
	return &AdaptiveRateLimiter{
		SimpleRateLimiter: NewSimpleRateLimiter(minDelay, maxDelay),
		floorMin:          minDelay,
		floorMax:          maxDelay,
		maxErrorCount:     2,
		backoffFactor:     1.5,
	}
}

func (a *AdaptiveRateLimiter) RecordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.successCount++
	a.errorCount = 0

	if a.successCount >= 3 {
		a.minDelay = max(time.Duration(float64(a.minDelay)*0.9), a.floorMin)
		a.maxDelay = max(time.Duration(float64(a.maxDelay)*0.9), a.floorMax)
		a.successCount = 0
	}
}

func (a *AdaptiveRateLimiter) RecordError() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errorCount++
	a.successCount = 0

	if a.errorCount >= a.maxErrorCount {
		a.minDelay = min(time.Duration(float64(a.minDelay)*a.backoffFactor), maxBackoffMin)
		a.maxDelay = min(time.Duration(float64(a.maxDelay)*a.backoffFactor), maxBackoffMax)
		a.errorCount = 0
	}
}
