package livecounter

import (
	"fmt"

	"github.com/jpalmerr/livecounter/internal/poller"
)

// ErrTimeout is reported when a live stats request exceeds its bounded wait
// and is cancelled. Match it with errors.Is.
var ErrTimeout = poller.ErrTimeout

// FetchError describes a live stats request that completed unsuccessfully:
// a network failure, a non-2xx status, or a body that could not be decoded.
type FetchError struct {
	// StatusCode is the HTTP status, zero if no response was received.
	StatusCode int

	// Err is the underlying cause, nil for a plain non-2xx status.
	Err error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("live stats request failed: HTTP %d", e.StatusCode)
	case e.StatusCode != 0:
		return fmt.Sprintf("live stats request failed: HTTP %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("live stats request failed: %v", e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}
