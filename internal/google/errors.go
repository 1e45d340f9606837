package google

import (
	"errors"
	"fmt"
)

// ErrSelectionNotReady means the provider reported FAILED_PRECONDITION for a
// picker media listing: the user has not finished picking. It is retryable,
// unlike every other upstream failure.
var ErrSelectionNotReady = errors.New("selection not finished")

// UpstreamError is a non-2xx response from a provider API call, carrying the
// status and provider detail for the caller to surface.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Status     string
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s returned %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.StatusCode, e.Detail)
}
