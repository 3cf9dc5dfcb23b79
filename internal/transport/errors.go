package transport

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsupported marks an operation the current platform account cannot
// perform. Callers treat it like any other failed operation: log and move
// on, never crash.
var ErrUnsupported = errors.New("transport: operation not supported")

// RateLimitedError is the platform telling us to slow down. RetryAfter is
// the server-mandated wait; WithFloodControl honors it by sleeping exactly
// that long before a single retry.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("transport: rate limited, retry after %s", e.RetryAfter)
}

// AsRateLimited unwraps err into a RateLimitedError if one is in the chain.
func AsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
