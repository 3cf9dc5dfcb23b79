package pacing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

type sentRecord struct {
	text string
	at   time.Time
}

// fakeSender records sends and deletes; onSend runs after each attempt with
// the 1-based attempt number.
type fakeSender struct {
	mu       sync.Mutex
	sendErr  error
	attempts int
	sends    []sentRecord
	deletes  []transport.MessageRef
	onSend   func(attempt int)
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, text string) (transport.MessageRef, error) {
	f.mu.Lock()
	f.attempts++
	n := f.attempts
	err := f.sendErr
	if err == nil {
		f.sends = append(f.sends, sentRecord{text: text, at: time.Now()})
	}
	f.mu.Unlock()
	if f.onSend != nil {
		f.onSend(n)
	}
	if err != nil {
		return transport.MessageRef{}, err
	}
	return transport.MessageRef{ChatID: chatID, MessageID: n}, nil
}

func (f *fakeSender) Delete(_ context.Context, ref transport.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, ref)
	return nil
}

func (f *fakeSender) sendTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	times := make([]time.Time, len(f.sends))
	for i, s := range f.sends {
		times[i] = s.at
	}
	return times
}

func (f *fakeSender) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func newTestWorker(window Window, sender *fakeSender, autoDelete bool, deleteWait time.Duration) (*Worker, *Queue) {
	q := NewQueue(16)
	w := NewWorker(WorkerConfig{
		ChatID:     1,
		Window:     window,
		AutoDelete: autoDelete,
		DeleteWait: deleteWait,
	}, q, sender)
	return w, q
}

// TestWorkerDrainsAndPaces verifies every queued item is sent in order and
// consecutive sends are separated by at least the window minimum.
func TestWorkerDrainsAndPaces(t *testing.T) {
	window := Window{Min: 20 * time.Millisecond, Max: 30 * time.Millisecond}
	sender := &fakeSender{}
	w, q := newTestWorker(window, sender, false, 0)

	for _, text := range []string{"one", "two", "three"} {
		q.Enqueue(SendRequest{Kind: KindWord, Text: text, EnqueuedAt: time.Now()})
	}
	q.Poison()

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	times := sender.sendTimes()
	if len(times) != 3 {
		t.Fatalf("sent %d messages, want 3", len(times))
	}
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		if gap < window.Min-time.Millisecond {
			t.Errorf("gap between send %d and %d = %s, want at least %s", i-1, i, gap, window.Min)
		}
	}
	if got := w.Processed(); got != 3 {
		t.Errorf("Processed = %d, want 3", got)
	}
}

// TestWorkerStopsPromptly verifies that after cancellation during the first
// item's pacing sleep, no more than one additional item is processed.
func TestWorkerStopsPromptly(t *testing.T) {
	window := Window{Min: 60 * time.Millisecond, Max: 80 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())

	sender := &fakeSender{onSend: func(attempt int) {
		if attempt == 1 {
			cancel()
		}
	}}
	w, q := newTestWorker(window, sender, false, 0)
	for i := 0; i < 5; i++ {
		q.Enqueue(SendRequest{Kind: KindWord, Text: "w"})
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	if got := w.Processed(); got > 2 {
		t.Errorf("processed %d items after stop, want at most 2", got)
	}
}

// TestWorkerFailedSendStillPaces verifies a send error is not retried and
// the pacing delay still applies, preserving cadence under errors.
func TestWorkerFailedSendStillPaces(t *testing.T) {
	window := Window{Min: 20 * time.Millisecond, Max: 25 * time.Millisecond}
	sender := &fakeSender{sendErr: errors.New("wire down")}
	w, q := newTestWorker(window, sender, false, 0)

	q.Enqueue(SendRequest{Kind: KindWord, Text: "a"})
	q.Enqueue(SendRequest{Kind: KindWord, Text: "b"})
	q.Poison()

	start := time.Now()
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	elapsed := time.Since(start)

	if got := sender.attemptCount(); got != 2 {
		t.Errorf("send attempts = %d, want 2 (no retries)", got)
	}
	if elapsed < 2*window.Min-time.Millisecond {
		t.Errorf("two failed sends finished in %s, want at least %s of pacing", elapsed, 2*window.Min)
	}
}

// TestWorkerAutoDelete verifies the detached delete fires after the wait
// with the handle of the sent message.
func TestWorkerAutoDelete(t *testing.T) {
	window := Window{Min: 5 * time.Millisecond, Max: 10 * time.Millisecond}
	sender := &fakeSender{}
	w, q := newTestWorker(window, sender, true, 10*time.Millisecond)

	q.Enqueue(SendRequest{Kind: KindWord, Text: "gone soon"})
	q.Poison()
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		sender.mu.Lock()
		n := len(sender.deletes)
		sender.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("delete never fired, got %d deletes", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	sender.mu.Lock()
	ref := sender.deletes[0]
	sender.mu.Unlock()
	if ref.MessageID != 1 {
		t.Errorf("deleted message %d, want 1", ref.MessageID)
	}
}

// TestWorkerPoisonOnly verifies an immediately poisoned queue terminates
// the worker without any sends.
func TestWorkerPoisonOnly(t *testing.T) {
	sender := &fakeSender{}
	w, q := newTestWorker(Window{Min: time.Millisecond, Max: time.Millisecond}, sender, false, 0)
	q.Poison()

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not terminate on poison")
	}
	if got := sender.attemptCount(); got != 0 {
		t.Errorf("send attempts = %d, want 0", got)
	}
}
