// Package timer implements the pausable per-second exam countdown with
// urgency tiers and a one-shot expiry callback.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Tier is the display urgency of the remaining time.
type Tier string

const (
	TierNormal   Tier = "normal"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)

const (
	warningThreshold  = 1200 // seconds
	criticalThreshold = 600
)

// Countdown decrements once per wall-clock second while running. All
// methods are safe for concurrent use.
type Countdown struct {
	mu       sync.Mutex
	timeLeft int
	paused   bool
	stopped  bool
	expired  bool
	tier     Tier

	onTick   func(secondsLeft int)
	onTier   func(tier Tier)
	onExpire func()

	log zerolog.Logger
}

// New creates a countdown with the given duration. The callbacks are
// invoked from the ticking goroutine (or from Tick in tests); onTier fires
// only when the tier actually changes, and onExpire fires exactly once
// when the countdown reaches zero.
func New(duration time.Duration, log zerolog.Logger) *Countdown {
	secs := int(duration / time.Second)
	if secs < 0 {
		secs = 0
	}
	c := &Countdown{
		timeLeft: secs,
		log:      log.With().Str("component", "countdown").Logger(),
	}
	c.tier = tierFor(secs)
	return c
}

// OnTick registers a per-second callback receiving the remaining seconds.
func (c *Countdown) OnTick(fn func(secondsLeft int)) { c.mu.Lock(); c.onTick = fn; c.mu.Unlock() }

// OnTierChange registers a callback for urgency tier transitions.
func (c *Countdown) OnTierChange(fn func(tier Tier)) { c.mu.Lock(); c.onTier = fn; c.mu.Unlock() }

// OnExpire registers the auto-submit callback fired once at zero.
func (c *Countdown) OnExpire(fn func()) { c.mu.Lock(); c.onExpire = fn; c.mu.Unlock() }

// Run ticks the countdown once per second until it expires, Stop is called
// or the context is cancelled. Call in a goroutine.
func (c *Countdown) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := c.Tick(); done {
				return
			}
		}
	}
}

// Tick advances the countdown by one second and reports whether it is
// finished (expired or stopped). Paused ticks are no-ops.
func (c *Countdown) Tick() bool {
	c.mu.Lock()
	if c.stopped || c.expired {
		c.mu.Unlock()
		return true
	}
	if c.paused {
		c.mu.Unlock()
		return false
	}

	// A countdown created with no time on the clock expires on its first
	// tick rather than silently reporting done.
	if c.timeLeft > 0 {
		c.timeLeft--
	}
	left := c.timeLeft

	var tierFn func(Tier)
	if next := tierFor(left); next != c.tier {
		c.tier = next
		tierFn = c.onTier
		c.log.Debug().Int("time_left", left).Str("tier", string(next)).Msg("Tier changed")
	}
	tier := c.tier

	tickFn := c.onTick

	var expireFn func()
	if left == 0 {
		c.expired = true
		expireFn = c.onExpire
	}
	c.mu.Unlock()

	if tickFn != nil {
		tickFn(left)
	}
	if tierFn != nil {
		tierFn(tier)
	}
	if expireFn != nil {
		c.log.Info().Msg("Time expired, firing auto-submit")
		expireFn()
	}
	return left == 0
}

// Pause stops decrementing without losing the remaining time.
func (c *Countdown) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume restarts decrementing after a Pause.
func (c *Countdown) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// Stop permanently halts the countdown, e.g. after a user submit. The
// expiry callback will not fire after Stop.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

// TimeLeft returns the remaining whole seconds. Never negative.
func (c *Countdown) TimeLeft() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLeft
}

// Paused reports whether the countdown is currently paused.
func (c *Countdown) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// CurrentTier returns the urgency tier for the remaining time.
func (c *Countdown) CurrentTier() Tier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tier
}

func tierFor(secondsLeft int) Tier {
	switch {
	case secondsLeft <= criticalThreshold:
		return TierCritical
	case secondsLeft <= warningThreshold:
		return TierWarning
	default:
		return TierNormal
	}
}

// Format renders seconds as zero-padded HH:MM:SS.
func Format(secondsLeft int) string {
	if secondsLeft < 0 {
		secondsLeft = 0
	}
	h := secondsLeft / 3600
	m := (secondsLeft % 3600) / 60
	s := secondsLeft % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
