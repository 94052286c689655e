package dto

import "github.com/shopspring/decimal"

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type BalanceResponse struct {
	UserID      string          `json:"user_id"`
	TimeBalance decimal.Decimal `json:"time_balance"`
}

type ListResponse[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Count: len(items), Items: items}
}
