package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RealtimePublisher pushes an event to one room. Implementations are
// fire-and-forget collaborators; the dispatcher logs and swallows their
// failures.
type RealtimePublisher interface {
	Publish(ctx context.Context, room, event string, payload interface{}) error
}

// RedisPublisher publishes room events to Redis pub/sub channels. The
// socket gateway holds the subscriptions and relays messages to the
// connected clients of each room.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

type realtimeMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

func (p *RedisPublisher) Publish(ctx context.Context, room, event string, payload interface{}) error {
	if p.client == nil {
		return fmt.Errorf("redis client not configured")
	}
	body, err := json.Marshal(realtimeMessage{Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal realtime payload: %w", err)
	}
	if err := p.client.Publish(ctx, room, body).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", room, err)
	}
	return nil
}
