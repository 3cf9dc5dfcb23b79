// Package bonus sends the fixed bonus phrase on its own randomized
// cadence. It talks to the transport directly, never through the dispatch
// queue, so word-sending backpressure cannot perturb its timing.
package bonus

import (
	"context"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/grindbot/internal/pacing"
	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

const (
	errBackoff  = 5 * time.Second
	sendTimeout = 10 * time.Second
)

// Sender is the slice of the transport the live loop needs.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) (transport.MessageRef, error)
}

// Config carries the static parameters of the bonus stream. Window is the
// bonus interval band, distinct from and wider than the word window.
type Config struct {
	ChatID int64
	Text   string
	Window pacing.Window
}

// Loop is the live bonus sender: one send immediately at startup, then one
// per randomized interval. Intervals are measured from the last completed
// send, so time lost to failed attempts and backoffs is not added on top.
type Loop struct {
	cfg    Config
	sender Sender
}

func New(cfg Config, sender Sender) *Loop {
	return &Loop{cfg: cfg, sender: sender}
}

// Run sends until ctx ends. Always returns nil; send failures are logged
// and retried after a fixed backoff.
func (l *Loop) Run(ctx context.Context) error {
	slog.Info("bonus loop started",
		"interval_min", l.cfg.Window.Min,
		"interval_max", l.cfg.Window.Max)

	var lastSent time.Time
	for {
		if ctx.Err() != nil {
			slog.Debug("bonus loop stopping")
			return nil
		}

		// The interval runs from the last completed send, not from now.
		if !lastSent.IsZero() {
			wait := l.cfg.Window.Draw() - time.Since(lastSent)
			if wait < 0 {
				wait = 0
			}
			slog.Debug("bonus wait", "next_in", wait.Round(time.Millisecond))
			if !sleep(ctx, wait) {
				slog.Debug("bonus loop stopping")
				return nil
			}
		}

		if err := l.send(ctx); err != nil {
			slog.Warn("bonus send failed", "error", err)
			if !sleep(ctx, errBackoff) {
				return nil
			}
			continue
		}
		lastSent = time.Now()
		slog.Debug("bonus sent")
	}
}

func (l *Loop) send(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return transport.WithFloodControl(cctx, "bonus send", func(ctx context.Context) error {
		_, err := l.sender.SendText(ctx, l.cfg.ChatID, l.cfg.Text)
		return err
	})
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
