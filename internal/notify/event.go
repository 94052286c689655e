package notify

import (
	"context"
	"time"

	"time-bank.com/time-bank/internal/constants"
)

type Event struct {
	UserID  string              `json:"user_id"`
	Type    constants.EventType `json:"type"`
	Payload map[string]any      `json:"payload,omitempty"`
	At      time.Time           `json:"at"`
}

// Sender delivers one event to the outside world.
type Sender interface {
	Send(ctx context.Context, event Event) error
}
