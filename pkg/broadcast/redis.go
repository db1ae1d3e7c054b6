package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/retry"
)

// RedisBroadcaster publishes events on Redis pub/sub channels. The push
// transport (socket gateway) subscribes to entity channels and fans events
// out to connected clients.
type RedisBroadcaster struct {
	client *redis.Client
	retry  *retry.Config
}

// NewRedisBroadcaster wraps an existing Redis client.
func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, retry: retry.DefaultConfig()}
}

var _ Broadcaster = (*RedisBroadcaster)(nil)

// Publish marshals the event and publishes it on its channel, retrying
// transient connection failures with backoff.
func (b *RedisBroadcaster) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal broadcast event: %w", err)
	}

	err = retry.Do(ctx, b.retry, func() error {
		return b.client.Publish(ctx, event.Channel, data).Err()
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", event.Channel, err)
	}

	return nil
}
