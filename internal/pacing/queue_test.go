package pacing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(8)
	for _, text := range []string{"a", "b", "c"} {
		if err := q.Enqueue(SendRequest{Kind: KindWord, Text: text, EnqueuedAt: time.Now()}); err != nil {
			t.Fatalf("Enqueue(%q) returned %v", text, err)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		req, err := q.Dequeue(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("Dequeue returned %v", err)
		}
		if req.Text != want {
			t.Errorf("Dequeue = %q, want %q", req.Text, want)
		}
	}
}

// TestQueueDequeueTimeout verifies an empty queue wakes the caller with
// ErrQueueEmpty after the timeout rather than blocking forever.
func TestQueueDequeueTimeout(t *testing.T) {
	q := NewQueue(8)
	start := time.Now()
	_, err := q.Dequeue(context.Background(), 20*time.Millisecond)
	if !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("Dequeue on empty queue = %v, want ErrQueueEmpty", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Dequeue returned after %s, want at least the timeout", elapsed)
	}
}

// TestQueuePoisonIsLast verifies items enqueued before Poison drain first,
// the sentinel terminates, and later enqueues are rejected.
func TestQueuePoisonIsLast(t *testing.T) {
	q := NewQueue(8)
	q.Enqueue(SendRequest{Kind: KindWord, Text: "a"})
	q.Enqueue(SendRequest{Kind: KindWord, Text: "b"})
	q.Poison()

	if err := q.Enqueue(SendRequest{Kind: KindWord, Text: "late"}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Enqueue after Poison = %v, want ErrQueueClosed", err)
	}

	for _, want := range []string{"a", "b"} {
		req, err := q.Dequeue(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("Dequeue returned %v", err)
		}
		if req.Text != want {
			t.Errorf("Dequeue = %q, want %q", req.Text, want)
		}
	}
	if _, err := q.Dequeue(context.Background(), time.Second); !errors.Is(err, ErrQueuePoisoned) {
		t.Errorf("final Dequeue = %v, want ErrQueuePoisoned", err)
	}
}

func TestQueuePoisonIdempotent(t *testing.T) {
	q := NewQueue(8)
	q.Poison()
	q.Poison()
	if _, err := q.Dequeue(context.Background(), time.Second); !errors.Is(err, ErrQueuePoisoned) {
		t.Fatalf("Dequeue = %v, want ErrQueuePoisoned", err)
	}
	// A second sentinel must not exist.
	if _, err := q.Dequeue(context.Background(), 20*time.Millisecond); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Dequeue after sentinel = %v, want ErrQueueEmpty", err)
	}
}

func TestQueueFull(t *testing.T) {
	q := NewQueue(2)
	q.Enqueue(SendRequest{Text: "a"})
	q.Enqueue(SendRequest{Text: "b"})
	if err := q.Enqueue(SendRequest{Text: "c"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue on full queue = %v, want ErrQueueFull", err)
	}
	if got := q.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
}

// TestQueueDequeueCancellation verifies a canceled context interrupts the
// wait ahead of the timeout.
func TestQueueDequeueCancellation(t *testing.T) {
	q := NewQueue(8)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := q.Dequeue(ctx, 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Dequeue = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Dequeue returned after %s, want prompt cancellation", elapsed)
	}
}
