package errors

import (
	"errors"
	"net/http"
)

// Kind classifies a failure for callers that need more than a status code.
// Collaborators render their own user-facing text from it; the Message is
// diagnostic.
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"
	KindNotFound      Kind = "not_found"
	KindArchived      Kind = "archived"
	KindInvalidState  Kind = "invalid_state"
	KindCycleDetected Kind = "cycle_detected"
	KindConflict      Kind = "conflict"
	KindStorage       Kind = "storage_error"
	KindInternal      Kind = "internal"
)

type Exception struct {
	Kind       Kind
	Message    string
	StatusCode int
	Cause      error
}

func (e *Exception) Error() string {
	return e.Message
}

func (e *Exception) Unwrap() error {
	return e.Cause
}

// KindOf extracts the failure kind, defaulting to internal for errors that
// did not originate in this module.
func KindOf(err error) Kind {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
