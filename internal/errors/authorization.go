package errors

import "net/http"

var ErrUnauthenticated = &Exception{
	Kind:       "unauthenticated",
	Message:    "caller identity is missing or unknown",
	StatusCode: http.StatusUnauthorized,
}

var ErrNotOwner = &Exception{
	Kind:       "not_owner",
	Message:    "only the task owner may perform this action",
	StatusCode: http.StatusForbidden,
}

var ErrNotAssignee = &Exception{
	Kind:       "not_assignee",
	Message:    "only the assigned worker may perform this action",
	StatusCode: http.StatusForbidden,
}

var ErrNotParticipant = &Exception{
	Kind:       "not_participant",
	Message:    "only the task owner or assignee may perform this action",
	StatusCode: http.StatusForbidden,
}
