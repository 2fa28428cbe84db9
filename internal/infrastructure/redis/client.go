package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewClient creates a new Redis client and verifies the connection.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// HealthChecker reports whether Redis is reachable.
type HealthChecker struct {
	client *redis.Client
}

// NewHealthChecker creates a new HealthChecker.
func NewHealthChecker(client *redis.Client) *HealthChecker {
	return &HealthChecker{client: client}
}

// Name returns the dependency name used in readiness output.
func (c *HealthChecker) Name() string {
	return "redis"
}

// Check pings Redis.
func (c *HealthChecker) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
