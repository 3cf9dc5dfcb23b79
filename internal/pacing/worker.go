package pacing

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nextlevelbuilder/grindbot/internal/textutil"
	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

const (
	// defaultDequeueTimeout keeps an idle worker responsive to shutdown.
	defaultDequeueTimeout = time.Second
	// defaultSendTimeout bounds a single brokered platform call.
	defaultSendTimeout = 10 * time.Second
)

// Sender is the slice of the transport the pacing worker needs.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) (transport.MessageRef, error)
	Delete(ctx context.Context, ref transport.MessageRef) error
}

// WorkerConfig carries the static parameters of the pacing loop.
type WorkerConfig struct {
	ChatID     int64
	Window     Window
	AutoDelete bool
	DeleteWait time.Duration
}

// Worker is the single consumer of the dispatch queue. Each iteration it
// takes one request, sends it, optionally schedules the delayed delete,
// then sleeps a fresh draw from the window before taking the next. There
// is never more than one in-flight send on this path.
type Worker struct {
	cfg    WorkerConfig
	queue  *Queue
	sender Sender

	dequeueTimeout time.Duration
	sendTimeout    time.Duration
	processed      atomic.Int64
}

// NewWorker wires a worker to its queue and sender.
func NewWorker(cfg WorkerConfig, queue *Queue, sender Sender) *Worker {
	return &Worker{
		cfg:            cfg,
		queue:          queue,
		sender:         sender,
		dequeueTimeout: defaultDequeueTimeout,
		sendTimeout:    defaultSendTimeout,
	}
}

// Run consumes the queue until the poison sentinel is taken or ctx ends.
// Both are clean terminations; Run never returns an error for individual
// send failures.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("pacing worker started",
		"chat_id", w.cfg.ChatID,
		"delay_min", w.cfg.Window.Min,
		"delay_max", w.cfg.Window.Max,
		"auto_delete", w.cfg.AutoDelete)

	for {
		req, err := w.queue.Dequeue(ctx, w.dequeueTimeout)
		switch {
		case errors.Is(err, ErrQueueEmpty):
			continue
		case errors.Is(err, ErrQueuePoisoned):
			slog.Info("pacing worker terminating", "processed", w.processed.Load())
			return nil
		case err != nil:
			slog.Debug("pacing worker stopping", "reason", err, "processed", w.processed.Load())
			return nil
		}
		w.process(ctx, req)
	}
}

// Processed reports how many requests the worker has taken through a full
// send-and-sleep cycle.
func (w *Worker) Processed() int64 { return w.processed.Load() }

func (w *Worker) process(ctx context.Context, req SendRequest) {
	ref, err := w.send(ctx, req)
	if err != nil {
		// No retry, and the pacing sleep below still applies: a failed
		// send spends its slot in the rate budget.
		slog.Warn("paced send failed", "kind", req.Kind, "error", err)
	} else {
		slog.Debug("paced send delivered",
			"kind", req.Kind,
			"message_id", ref.MessageID,
			"text", textutil.Preview(req.Text, 32),
			"queued_for", time.Since(req.EnqueuedAt).Round(time.Millisecond))
		if w.cfg.AutoDelete {
			w.scheduleDelete(ref)
		}
	}
	w.processed.Add(1)
	w.sleep(ctx)
}

// send performs one bounded platform call, honoring a rate-limit signal
// with the mandated wait and a single retry as long as the call budget
// allows. A mandated wait longer than the budget degrades to a failed send.
func (w *Worker) send(ctx context.Context, req SendRequest) (transport.MessageRef, error) {
	cctx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	var ref transport.MessageRef
	err := transport.WithFloodControl(cctx, "paced send", func(ctx context.Context) error {
		var err error
		ref, err = w.sender.SendText(ctx, w.cfg.ChatID, req.Text)
		return err
	})
	return ref, err
}

// scheduleDelete fires a detached timer that removes the sent message
// after the configured wait. Failures are swallowed: the message may
// already be gone, and the pacing loop must not care either way.
func (w *Worker) scheduleDelete(ref transport.MessageRef) {
	time.AfterFunc(w.cfg.DeleteWait, func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.sendTimeout)
		defer cancel()
		if err := w.sender.Delete(ctx, ref); err != nil {
			slog.Debug("auto delete failed", "message_id", ref.MessageID, "error", err)
		}
	})
}

// sleep waits a fresh window draw, returning early when ctx ends.
func (w *Worker) sleep(ctx context.Context) {
	timer := time.NewTimer(w.cfg.Window.Draw())
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
