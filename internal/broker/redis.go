package broker

import (
	"context"

	"github.com/redis/go-redis/v9"

	"docstore-platform/internal/logger"
)

// RedisBroker carries events over Redis pub/sub channels.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, channel string, handler Handler) (func(), error) {
	sub := b.client.Subscribe(ctx, channel)

	// Wait for the subscription to be confirmed so events published right
	// after Subscribe returns are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	go func() {
		for msg := range sub.Channel() {
			handler([]byte(msg.Payload))
		}
		logger.Debug("Redis subscription closed", "channel", channel)
	}()

	return func() {
		if err := sub.Close(); err != nil {
			logger.Warn("Failed to close Redis subscription", "channel", channel, "error", err)
		}
	}, nil
}
