package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel carrying domain events from the
// services to the notification subscriber.
const Channel = "marketplace:events"

// Event is a domain event addressed to one user. Data carries the
// triggering entity ids so a consumer can deep-link (jobId, bidId, ...).
type Event struct {
	Type     string                 `json:"type"`
	User     string                 `json:"user"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Priority string                 `json:"priority"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// Publisher emits events after the primary write commits. Emission is
// best-effort: a failed publish must never fail the operation that
// produced the event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type redisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) Publisher {
	return &redisPublisher{rdb: rdb}
}

func (p *redisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, Channel, payload).Err()
}

// LogPublish wraps a publish call with the swallow-and-log policy the
// services apply to all side effects.
func LogPublish(ctx context.Context, pub Publisher, event Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Printf("Failed to publish %s event for user %s: %v", event.Type, event.User, err)
	}
}
