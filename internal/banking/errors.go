package banking

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrUnauthorized        = errors.New("banking: authentication required or rejected")
	ErrForbidden           = errors.New("banking: access forbidden")
	ErrNotFound            = errors.New("banking: resource not found")
	ErrUpstreamError       = errors.New("banking: API internal error (5xx)")
	ErrUpstreamUnavailable = errors.New("banking: host unreachable or transport failure")
	ErrBadResponse         = errors.New("banking: invalid response format or malformed data")
	ErrTimeout             = errors.New("banking: request timed out")
)

// APIError is a rich error type that wraps the sentinel errors with context.
type APIError struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error // Nested lower-level error (e.g. net.Error)
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("banking: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Sentinel
}

// ValidationError reports malformed input rejected before a request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("banking: invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a local input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
