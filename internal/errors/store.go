package errors

import "net/http"

var ErrStoreTimeout = &Exception{
	Kind:       "store_timeout",
	Message:    "store did not respond in time",
	StatusCode: http.StatusServiceUnavailable,
	Retryable:  true,
}

var ErrStoreConflict = &Exception{
	Kind:       "store_conflict",
	Message:    "concurrent update conflict",
	StatusCode: http.StatusConflict,
	Retryable:  true,
}
