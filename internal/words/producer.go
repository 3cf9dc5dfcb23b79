package words

import (
	"context"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/grindbot/internal/pacing"
)

// errBackoff is how long the producer waits after an internal error before
// trying again. Deliberately much longer than the pacing window so a
// persistent fault cannot spin the loop.
const errBackoff = 5 * time.Second

// Enqueuer is the slice of the dispatch queue the producer needs.
type Enqueuer interface {
	Enqueue(pacing.SendRequest) error
}

// Producer samples the wordlist and pushes one request per cycle into the
// dispatch queue, then waits a fresh window draw. It never terminates on
// its own errors, only on cancellation.
type Producer struct {
	list   *List
	queue  Enqueuer
	window pacing.Window
}

func NewProducer(list *List, queue Enqueuer, window pacing.Window) *Producer {
	return &Producer{list: list, queue: queue, window: window}
}

// Run loops until ctx ends. Always returns nil; production problems are
// logged and retried after a backoff.
func (p *Producer) Run(ctx context.Context) error {
	slog.Info("word producer started",
		"words", p.list.Len(),
		"delay_min", p.window.Min,
		"delay_max", p.window.Max)

	for {
		if ctx.Err() != nil {
			slog.Debug("word producer stopping")
			return nil
		}

		word, ok := p.list.Pick()
		if !ok {
			slog.Warn("wordlist empty, backing off")
			if !sleep(ctx, errBackoff) {
				return nil
			}
			continue
		}

		err := p.queue.Enqueue(pacing.SendRequest{
			Kind:       pacing.KindWord,
			Text:       word,
			EnqueuedAt: time.Now(),
		})
		if err != nil {
			slog.Warn("word enqueue failed, backing off", "error", err)
			if !sleep(ctx, errBackoff) {
				return nil
			}
			continue
		}

		if !sleep(ctx, p.window.Draw()) {
			slog.Debug("word producer stopping")
			return nil
		}
	}
}

// sleep waits d, returning false when ctx ended first.
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
