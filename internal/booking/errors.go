package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUpstreamAuth means the upstream platform rejected our credential.
	// Not retryable; the session must re-authenticate.
	ErrUpstreamAuth = errors.New("upstream credentials rejected")

	// ErrUpstreamUnavailable covers transport failures, timeouts and 5xx
	// responses. Retryable by re-invoking the same operation.
	ErrUpstreamUnavailable = errors.New("upstream platform unavailable")

	// ErrNoAvailability means a well-formed query legitimately returned
	// zero usable slots. Non-fatal; invites different search criteria.
	ErrNoAvailability = errors.New("no available time slots found for the selected criteria")

	// ErrOutOfSequence marks a flow transition invoked out of order.
	ErrOutOfSequence = errors.New("booking step out of sequence")
)

// ConfigurationError means required reference data is missing upstream.
// It points at data setup, not at the user's selection.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Detail
}

// IncompleteBookingError names every draft field still missing at
// submission time, so one error message is actionable.
type IncompleteBookingError struct {
	Missing []string
}

func (e *IncompleteBookingError) Error() string {
	return "booking is incomplete, missing: " + strings.Join(e.Missing, ", ")
}

// UpstreamRejection carries the upstream validation message for a failed
// creation call, verbatim, alongside a generic fallback.
type UpstreamRejection struct {
	Message string
}

func (e *UpstreamRejection) Error() string {
	if e.Message == "" {
		return "failed to create appointment"
	}
	return fmt.Sprintf("failed to create appointment: %s", e.Message)
}
