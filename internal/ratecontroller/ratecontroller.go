// Package ratecontroller implements spec §4.2: converting a load pattern's
// target-TPS timeline into per-iteration release instants, pacing dispatch
// via a shared atomic release counter and a park-with-nanos primitive.
package ratecontroller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pcraw4d/loadgen/internal/loadpattern"
)

// sleeper waits up to d, returning early with ctx.Err() if ctx is cancelled
// first. Injectable so tests can drive the controller with a fake clock
// instead of real wall-clock sleeps — mirroring the injectable now/sleep
// fields a synchronous-clock-driven load worker needs for deterministic
// tests.
type sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RateController paces release of iterations to approximate, over any
// interval, the integral of the pattern's TPSAt.
type RateController struct {
	pattern  loadpattern.Pattern
	now      func() time.Time
	sleep    sleeper
	startAt  time.Time
	releases uint64 // atomic
}

// New builds a RateController for the given pattern using the real
// wall-clock.
func New(pattern loadpattern.Pattern) *RateController {
	return &RateController{pattern: pattern, now: time.Now, sleep: defaultSleeper}
}

// newWithClock is used by tests to inject a deterministic clock and a
// no-delay sleeper.
func newWithClock(pattern loadpattern.Pattern, now func() time.Time, sleep sleeper) *RateController {
	return &RateController{pattern: pattern, now: now, sleep: sleep}
}

// Start records the run's start instant. Must be called exactly once before
// any call to ReleaseNext.
func (c *RateController) Start() {
	c.startAt = c.now()
}

// ReleaseNext blocks the caller until its iteration may proceed, per the
// algorithm in spec §4.2:
//  1. increment the shared release counter n
//  2. compute elapsed time and the pattern's current target rate r
//  3. if r <= 0, return immediately — the pattern is dormant
//  4. compute the expected release count floor(r * elapsed_seconds)
//  5. if n exceeds expected, sleep until the n-th release's target instant
//
// Returns ctx.Err() if ctx is cancelled while waiting; the caller should
// treat that as "stop dispatching".
func (c *RateController) ReleaseNext(ctx context.Context) error {
	n := atomic.AddUint64(&c.releases, 1)
	elapsed := c.now().Sub(c.startAt)
	r := c.pattern.TPSAt(elapsed.Milliseconds())
	if r <= 0 {
		return nil
	}
	expected := uint64(r * elapsed.Seconds())
	if n <= expected {
		return nil
	}
	targetOffset := time.Duration(float64(n) * float64(time.Second) / r)
	target := c.startAt.Add(targetOffset)
	if d := target.Sub(c.now()); d > 0 {
		return c.sleep(ctx, d)
	}
	return nil
}

// CurrentTPS returns the pattern's target rate at the current elapsed time.
// Cheap and lock-free.
func (c *RateController) CurrentTPS() float64 {
	return c.pattern.TPSAt(c.ElapsedMs())
}

// ElapsedMs returns milliseconds since Start. Cheap and lock-free.
func (c *RateController) ElapsedMs() int64 {
	return c.now().Sub(c.startAt).Milliseconds()
}

// Releases returns the total number of releases issued so far.
func (c *RateController) Releases() uint64 {
	return atomic.LoadUint64(&c.releases)
}
