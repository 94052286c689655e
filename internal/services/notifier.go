package services

import "time-bank.com/time-bank/internal/constants"

// Notifier is the fire-and-forget signal to external collaborators.
// Implementations must not block and must not report failures back.
type Notifier interface {
	Notify(userID string, eventType constants.EventType, payload map[string]any)
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, constants.EventType, map[string]any) {}
