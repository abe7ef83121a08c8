package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisOptions holds Redis connection settings
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisProvider reports the health of a shared Redis client
type RedisProvider struct {
	BaseProvider
	client redis.UniversalClient
}

// NewRedisProvider wraps an existing client
func NewRedisProvider(client redis.UniversalClient) *RedisProvider {
	return &RedisProvider{
		BaseProvider: BaseProvider{serviceType: "redis"},
		client:       client,
	}
}

// HealthCheck pings Redis
func (p *RedisProvider) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
