package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// ChannelPrefix prefixes the Redis pub/sub channel of every event type.
const ChannelPrefix = "events:"

// RedisPublisher publishes each event on channel "events:<type>".
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, ChannelPrefix+evt.Type, payload).Err()
}

func (p *RedisPublisher) Backend() string { return "redis" }

// Close leaves the shared client open.
func (p *RedisPublisher) Close() error { return nil }
