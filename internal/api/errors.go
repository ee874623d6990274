package api

import (
	"errors"
	"fmt"
)

// Kind classifies normalized backend errors.
type Kind int

const (
	// KindNetwork covers transport failures, timeouts and an open circuit
	// breaker.
	KindNetwork Kind = iota

	// KindAuthRejected is a 401 from the backend. Handled globally by
	// forcing a logout in addition to being surfaced to the caller.
	KindAuthRejected

	// KindValidation is a client-side form check that failed before any
	// network call was made.
	KindValidation

	// KindRemote is any other 4xx/5xx carrying a message body, e.g. an
	// invalid diagnosis session or out-of-stock at transaction time.
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthRejected:
		return "auth_rejected"
	case KindValidation:
		return "validation"
	case KindRemote:
		return "remote"
	}
	return "unknown"
}

// Error is the normalized error every backend call propagates: a kind, the
// HTTP status when one was received, and a human-readable message extracted
// from the response body or the transport error.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// AsError extracts the normalized error from err, if present.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAuthRejected reports whether err is a 401 rejection.
func IsAuthRejected(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindAuthRejected
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindNetwork
}
