package errors

import (
	"errors"
	"net/http"
)

// Exception is a typed, client-facing error. Kind is a stable machine-readable
// identifier; Retryable marks infrastructure failures a caller may retry.
type Exception struct {
	Kind       string
	Message    string
	StatusCode int
	Retryable  bool
}

func (e *Exception) Error() string {
	return e.Message
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func Kind(err error) string {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return "internal"
}

func IsRetryable(err error) bool {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
