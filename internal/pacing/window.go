// Package pacing implements the outbound message pipeline: the rate model
// that turns a throughput band into a per-message delay window, the
// dispatch queue bridging the word producer to the sender, and the single
// consumer worker that enforces the cadence.
package pacing

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Mode names a target throughput band.
type Mode string

const (
	// ModeFast targets roughly 900-1100 messages per hour.
	ModeFast Mode = "fast"
	// ModeSlow targets roughly 100-150 messages per hour.
	ModeSlow Mode = "slow"
)

const (
	fastMinDelay = 3270 * time.Millisecond
	fastMaxDelay = 4 * time.Second
	slowMinDelay = 24 * time.Second
	slowMaxDelay = 36 * time.Second

	// minDelayFloor keeps the window positive after the auto-delete
	// deduction, whatever the configured delete wait.
	minDelayFloor = 500 * time.Millisecond
)

// ParseMode maps a config string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFast:
		return ModeFast, nil
	case ModeSlow:
		return ModeSlow, nil
	}
	return "", fmt.Errorf("pacing: unknown rate mode %q", s)
}

// Window is the [min,max] random-delay band drawn from between sends.
// Immutable once derived; 0 < Min <= Max always holds.
type Window struct {
	Min time.Duration
	Max time.Duration
}

// DeriveWindow computes the delay window for a mode. When auto-delete is
// enabled the fixed wait before deletion is part of each send's observed
// cadence, so it is deducted from both bounds, floored at a small positive
// minimum.
func DeriveWindow(mode Mode, autoDelete bool, deleteWait time.Duration) (Window, error) {
	var w Window
	switch mode {
	case ModeFast:
		w = Window{Min: fastMinDelay, Max: fastMaxDelay}
	case ModeSlow:
		w = Window{Min: slowMinDelay, Max: slowMaxDelay}
	default:
		return Window{}, fmt.Errorf("pacing: unknown rate mode %q", mode)
	}

	if autoDelete && deleteWait > 0 {
		w.Min -= deleteWait
		w.Max -= deleteWait
		if w.Min < minDelayFloor {
			w.Min = minDelayFloor
		}
		if w.Max < w.Min {
			w.Max = w.Min
		}
	}
	return w, nil
}

// Draw samples a delay uniformly from the window. Each call draws fresh so
// consecutive sleeps do not correlate.
func (w Window) Draw() time.Duration {
	if w.Max <= w.Min {
		return w.Min
	}
	return w.Min + time.Duration(rand.Int64N(int64(w.Max-w.Min)+1))
}
