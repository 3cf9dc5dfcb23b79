package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultCallTimeout bounds how long a caller blocks on one brokered
	// call, queueing and execution included.
	DefaultCallTimeout = 10 * time.Second

	// defaultStopTimeout caps how long Stop waits for the dispatch
	// goroutine to drain.
	defaultStopTimeout = 10 * time.Second
)

type call struct {
	op   string
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Broker serializes platform API calls onto a single dispatch goroutine.
// Concurrent loops hand their calls over as request/reply pairs and block,
// with a bounded timeout, for the result. The dispatch goroutine is also
// where the global platform ceiling is enforced: every call takes a token
// from the shared limiter before it runs, independent of whatever cadence
// shaping the callers do on their own.
type Broker struct {
	calls   chan *call
	limiter *rate.Limiter
	timeout time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewBroker builds a broker enforcing the given ceiling. A nil limiter
// disables ceiling enforcement; callTimeout <= 0 selects the default.
func NewBroker(limiter *rate.Limiter, callTimeout time.Duration) *Broker {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Broker{
		calls:   make(chan *call),
		limiter: limiter,
		timeout: callTimeout,
		done:    make(chan struct{}),
	}
}

// Start launches the dispatch goroutine. Calls submitted before Start block
// until it runs.
func (b *Broker) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	go b.run(ctx)
}

// Stop shuts the dispatch goroutine down and waits for it to exit.
func (b *Broker) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	select {
	case <-b.done:
	case <-time.After(defaultStopTimeout):
		slog.Warn("transport broker did not stop in time")
	}
}

// Do submits fn for execution on the dispatch goroutine and waits for its
// result. The wait is bounded by the broker's call timeout; a call that
// cannot be accepted or completed within it fails with the context error.
func (b *Broker) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	c := &call{op: op, ctx: cctx, fn: fn, done: make(chan error, 1)}
	select {
	case b.calls <- c:
	case <-cctx.Done():
		return fmt.Errorf("transport: %s not accepted: %w", op, cctx.Err())
	case <-b.done:
		return fmt.Errorf("transport: %s rejected, broker stopped", op)
	}

	select {
	case err := <-c.done:
		if err != nil {
			return fmt.Errorf("transport: %s: %w", op, err)
		}
		return nil
	case <-cctx.Done():
		return fmt.Errorf("transport: %s timed out: %w", op, cctx.Err())
	}
}

func (b *Broker) run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-b.calls:
			b.execute(c)
		}
	}
}

func (b *Broker) execute(c *call) {
	// The caller may have timed out while the call sat in the queue.
	if err := c.ctx.Err(); err != nil {
		c.done <- err
		return
	}
	if b.limiter != nil {
		if err := b.limiter.Wait(c.ctx); err != nil {
			c.done <- fmt.Errorf("ceiling wait: %w", err)
			return
		}
	}
	c.done <- c.fn(c.ctx)
}
