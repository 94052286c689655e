package errors

import "net/http"

var ErrTaskNotFound = &Exception{
	Kind:       "not_found",
	Message:    "task not found",
	StatusCode: http.StatusNotFound,
}

var ErrUserNotFound = &Exception{
	Kind:       "not_found",
	Message:    "user not found",
	StatusCode: http.StatusNotFound,
}
