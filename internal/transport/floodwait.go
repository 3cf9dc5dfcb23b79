package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// WithFloodControl runs fn and, if the platform answers with a rate-limit
// signal, waits exactly the mandated duration and retries once. A second
// rate limit is returned to the caller untouched; anything else passes
// through on the first attempt.
func WithFloodControl(ctx context.Context, op string, fn func(context.Context) error) error {
	err := fn(ctx)
	rl, ok := AsRateLimited(err)
	if !ok {
		return err
	}

	slog.Warn("rate limited, honoring mandated wait", "op", op, "wait", rl.RetryAfter)
	timer := time.NewTimer(rl.RetryAfter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: canceled during rate-limit wait: %w", op, ctx.Err())
	case <-timer.C:
	}
	return fn(ctx)
}
