package domain

import "errors"

var (
	// ErrApplicationNotFound is returned when the decided application no longer exists
	ErrApplicationNotFound = errors.New("application not found")

	// ErrNotAccepted is returned when an accepted event disagrees with the stored status
	ErrNotAccepted = errors.New("application is not in accepted status")

	// ErrInvalidEvent is returned when a message body is not a usable decision event
	ErrInvalidEvent = errors.New("invalid decision event")

	// ErrMaxRetriesExceeded is returned when an event keeps failing past the retry limit
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrUnknownDecision is returned for events whose status is neither accepted nor rejected
	ErrUnknownDecision = errors.New("unknown decision status")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err, or anything it wraps, is a RetryableError
func IsRetryable(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}
