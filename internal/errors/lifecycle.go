package errors

import "net/http"

var ErrWrongState = &Exception{
	Kind:       "wrong_state",
	Message:    "task is not in a state that allows this action",
	StatusCode: http.StatusConflict,
}

var ErrTaskNotOpen = &Exception{
	Kind:       "task_not_open",
	Message:    "task is no longer open or has already been assigned",
	StatusCode: http.StatusConflict,
}

var ErrSelfAssignment = &Exception{
	Kind:       "self_assignment",
	Message:    "you cannot accept your own task",
	StatusCode: http.StatusUnprocessableEntity,
}

var ErrInvalidHours = &Exception{
	Kind:       "invalid_hours",
	Message:    "hours must be greater than zero",
	StatusCode: http.StatusBadRequest,
}

var ErrNoReportedHours = &Exception{
	Kind:       "no_reported_hours",
	Message:    "the worker has not reported any hours yet",
	StatusCode: http.StatusConflict,
}
