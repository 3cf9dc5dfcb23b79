package pacing

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Kind classifies a send request.
type Kind string

const (
	KindWord  Kind = "word"
	KindBonus Kind = "bonus"
)

// SendRequest is one outbound message waiting for the pacing worker. The
// queue owns it between enqueue and dequeue, the worker owns it afterwards;
// nobody mutates it.
type SendRequest struct {
	Kind       Kind
	Text       string
	EnqueuedAt time.Time

	poison bool
}

var (
	// ErrQueueEmpty reports a dequeue that timed out with nothing to take.
	ErrQueueEmpty = errors.New("pacing: queue empty")
	// ErrQueuePoisoned reports that the shutdown sentinel was observed.
	ErrQueuePoisoned = errors.New("pacing: queue poisoned")
	// ErrQueueClosed rejects enqueues after the queue has been poisoned,
	// keeping the sentinel the last item the consumer ever sees.
	ErrQueueClosed = errors.New("pacing: queue closed")
	// ErrQueueFull reports a producer running far ahead of the consumer.
	ErrQueueFull = errors.New("pacing: queue full")
)

// DefaultQueueCapacity is deep enough that a producer pacing itself on the
// same window as the consumer never fills it.
const DefaultQueueCapacity = 256

// Queue is the FIFO handing send requests from the producer to the pacing
// worker. It decouples production rate from egress rate: the producer may
// run ahead while the worker drains at the paced cadence.
type Queue struct {
	items    chan SendRequest
	poisoned atomic.Bool
}

// NewQueue builds a queue; capacity <= 0 selects the default.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{items: make(chan SendRequest, capacity)}
}

// Enqueue adds a request without blocking. After Poison all enqueues fail.
func (q *Queue) Enqueue(req SendRequest) error {
	if q.poisoned.Load() {
		return ErrQueueClosed
	}
	select {
	case q.items <- req:
		return nil
	default:
		return ErrQueueFull
	}
}

// Poison closes the queue for producers and appends the termination
// sentinel behind any items still waiting. If the queue is completely full
// the sentinel is dropped; the consumer still terminates through its
// context in that case.
func (q *Queue) Poison() {
	if q.poisoned.Swap(true) {
		return
	}
	select {
	case q.items <- SendRequest{poison: true}:
	default:
	}
}

// Dequeue takes the next request, waiting at most timeout. The short
// timeout exists so an idle consumer re-checks its context regularly
// rather than parking forever.
//
// Returns ErrQueueEmpty on timeout, ErrQueuePoisoned when the sentinel is
// taken, or the context error when ctx ends first.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (SendRequest, error) {
	if err := ctx.Err(); err != nil {
		return SendRequest{}, err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case req := <-q.items:
		if req.poison {
			return SendRequest{}, ErrQueuePoisoned
		}
		return req, nil
	case <-timer.C:
		return SendRequest{}, ErrQueueEmpty
	case <-ctx.Done():
		return SendRequest{}, ctx.Err()
	}
}

// Len reports how many requests are currently waiting.
func (q *Queue) Len() int { return len(q.items) }
