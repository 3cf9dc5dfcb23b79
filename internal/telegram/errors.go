package telegram

import (
	"errors"
	"time"

	"github.com/mymmrac/telego/telegoapi"

	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

// classifyErr maps platform API failures onto the transport error
// vocabulary. A 429 with retry_after becomes the typed rate-limit signal
// so WithFloodControl can honor the mandated wait; everything else passes
// through untouched.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *telegoapi.Error
	if errors.As(err, &apiErr) && apiErr.Parameters != nil && apiErr.Parameters.RetryAfter > 0 {
		return &transport.RateLimitedError{
			RetryAfter: time.Duration(apiErr.Parameters.RetryAfter) * time.Second,
		}
	}
	return err
}
