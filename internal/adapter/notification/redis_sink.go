package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/infrastructure/notifier"
)

// RedisSink publishes notifications as JSON on a Redis channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink creates a new RedisSink.
func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{
		client:  client,
		channel: channel,
	}
}

// Deliver publishes the notification.
func (s *RedisSink) Deliver(ctx context.Context, notification domain.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return &notifier.PermanentError{Err: fmt.Errorf("failed to encode notification: %w", err)}
	}

	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}
