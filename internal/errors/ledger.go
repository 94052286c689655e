package errors

import "net/http"

var ErrInsufficientBalance = &Exception{
	Kind:       "insufficient_balance",
	Message:    "insufficient time balance",
	StatusCode: http.StatusUnprocessableEntity,
}

var ErrDuplicateLedgerEntry = &Exception{
	Kind:       "duplicate_ledger_entry",
	Message:    "time credit was already granted for this task",
	StatusCode: http.StatusConflict,
}
