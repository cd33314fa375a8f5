// Package clock provides the one-shot countdown primitive driving timed
// sessions. It owns no scheduling policy; it ticks, expires, or is stopped.
package clock

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the wall-clock spacing between ticks.
const DefaultInterval = time.Second

// Countdown ticks once per interval for a bounded duration. A Countdown is
// one-shot: once stopped or expired it cannot be reused.
type Countdown struct {
	interval time.Duration
	logger   zerolog.Logger
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewCountdown creates a countdown ticking at the given interval.
// A non-positive interval falls back to DefaultInterval.
func NewCountdown(interval time.Duration, logger zerolog.Logger) *Countdown {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Countdown{
		interval: interval,
		logger:   logger.With().Str("component", "clock").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Run blocks, calling onTick once per interval with the new remaining time
// (monotonically decreasing, reaching zero on the final tick) and onExpire
// exactly once after the final tick. Callers run it on its own goroutine.
//
// Ticks are scheduled against absolute targets (start + i*interval) rather
// than by sleeping a fixed interval repeatedly, so scheduling jitter does
// not accumulate over a long session.
//
// Stop terminates the loop early without invoking onExpire; the caller
// distinguishes expiry from early stop by which callback fired.
func (c *Countdown) Run(duration time.Duration, onTick func(remaining time.Duration), onExpire func()) {
	if duration <= 0 {
		c.safeExpire(onExpire)
		return
	}

	start := time.Now()
	ticks := int64(duration / c.interval)
	if duration%c.interval != 0 {
		ticks++
	}

	for i := int64(1); i <= ticks; i++ {
		target := start.Add(time.Duration(i) * c.interval)
		if !c.sleepUntil(target) {
			return
		}
		remaining := duration - time.Duration(i)*c.interval
		if remaining < 0 {
			remaining = 0
		}
		c.safeTick(onTick, remaining)
	}

	c.safeExpire(onExpire)
}

// Stop requests early termination. It is idempotent; stopping an already
// finished countdown is a no-op.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// sleepUntil waits for the target instant. It returns false when the
// countdown was stopped first.
func (c *Countdown) sleepUntil(target time.Time) bool {
	wait := time.Until(target)
	if wait <= 0 {
		select {
		case <-c.stopCh:
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-c.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func (c *Countdown) safeTick(onTick func(time.Duration), remaining time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("Tick callback panicked")
		}
	}()
	onTick(remaining)
}

func (c *Countdown) safeExpire(onExpire func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("Expire callback panicked")
		}
	}()
	onExpire()
}
