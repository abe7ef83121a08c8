package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Counter tracks how many learners have enrolled in each course
type Counter interface {
	Increment(ctx context.Context, courseID string) (int64, error)
	Count(ctx context.Context, courseID string) (int64, error)
}

// MemoryCounter is an in-process Counter
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryCounter creates an empty counter
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int64)}
}

// Increment adds one enrollment to courseID
func (c *MemoryCounter) Increment(ctx context.Context, courseID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[courseID]++
	return c.counts[courseID], nil
}

// Count returns the enrollments of courseID
func (c *MemoryCounter) Count(ctx context.Context, courseID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[courseID], nil
}

// RedisCounter keeps counts in Redis so all replicas agree
type RedisCounter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCounter creates a Redis-backed counter
func NewRedisCounter(client redis.UniversalClient, prefix string) *RedisCounter {
	if prefix == "" {
		prefix = "progress:enrolled:"
	}
	return &RedisCounter{client: client, prefix: prefix}
}

// Increment adds one enrollment to courseID
func (c *RedisCounter) Increment(ctx context.Context, courseID string) (int64, error) {
	n, err := c.client.Incr(ctx, c.prefix+courseID).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment enrollment count: %w", err)
	}
	return n, nil
}

// Count returns the enrollments of courseID
func (c *RedisCounter) Count(ctx context.Context, courseID string) (int64, error) {
	n, err := c.client.Get(ctx, c.prefix+courseID).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read enrollment count: %w", err)
	}
	return n, nil
}
