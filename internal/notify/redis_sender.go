package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"
)

const inboxLimit = 100

// RedisSender appends each event to the recipient's inbox list and publishes
// it on a shared channel for push gateways to pick up.
type RedisSender struct {
	client  rueidis.Client
	channel string
}

func NewRedisSender(client rueidis.Client, channel string) *RedisSender {
	return &RedisSender{
		client:  client,
		channel: channel,
	}
}

func InboxKey(userID string) string {
	return "timebank:notifications:" + userID
}

func (s *RedisSender) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	key := InboxKey(event.UserID)
	cmds := rueidis.Commands{
		s.client.B().Lpush().Key(key).Element(string(body)).Build(),
		s.client.B().Ltrim().Key(key).Start(0).Stop(inboxLimit - 1).Build(),
		s.client.B().Publish().Channel(s.channel).Message(string(body)).Build(),
	}

	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Inbox returns up to limit of the user's most recent events, newest first.
func (s *RedisSender) Inbox(ctx context.Context, userID string, limit int64) ([]Event, error) {
	if limit <= 0 || limit > inboxLimit {
		limit = inboxLimit
	}

	raw, err := s.client.Do(
		ctx,
		s.client.B().Lrange().Key(InboxKey(userID)).Start(0).Stop(limit-1).Build(),
	).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, err
	}

	events := make([]Event, 0, len(raw))
	for _, item := range raw {
		var e Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
