package errors

import (
	"fmt"
	"net/http"
)

func InvalidInput(format string, args ...any) *Exception {
	return &Exception{
		Kind:       KindInvalidInput,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusBadRequest,
	}
}

func NotFound(format string, args ...any) *Exception {
	return &Exception{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusNotFound,
	}
}

func Archived(format string, args ...any) *Exception {
	return &Exception{
		Kind:       KindArchived,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusGone,
	}
}

func InvalidState(format string, args ...any) *Exception {
	return &Exception{
		Kind:       KindInvalidState,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusConflict,
	}
}

func CycleDetected(format string, args ...any) *Exception {
	return &Exception{
		Kind:       KindCycleDetected,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func Conflict(format string, args ...any) *Exception {
	return &Exception{
		Kind:       KindConflict,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusConflict,
	}
}

// Storage wraps a database or I/O failure. The cause is preserved for
// diagnostics but never shown to collaborators verbatim.
func Storage(cause error, format string, args ...any) *Exception {
	return &Exception{
		Kind:       KindStorage,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Internal marks an invariant violation, surfaced for diagnostics only.
func Internal(format string, args ...any) *Exception {
	return &Exception{
		Kind:       KindInternal,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusInternalServerError,
	}
}
