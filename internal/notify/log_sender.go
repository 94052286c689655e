package notify

import (
	"context"
	"log"
)

// LogSender writes events to the process log. Used when no Redis is
// configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, event Event) error {
	log.Printf("notify: %s -> user %s %v", event.Type, event.UserID, event.Payload)
	return nil
}
