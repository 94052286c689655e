package errors

import "net/http"

var ErrInvalidInput = &Exception{
	Kind:       "invalid_input",
	Message:    "invalid input",
	StatusCode: http.StatusBadRequest,
}
