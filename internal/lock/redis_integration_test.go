//go:build integration

package lock

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis connects to REDIS_TEST_ADDRESS, skipping when it is unset
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDRESS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedis_SerializesSameKey(t *testing.T) {
	client := newTestRedis(t)
	l := NewRedis(client, "test:lock:"+uuid.NewString()+":", time.Second)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "learner-1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestRedis_ContextTimeout(t *testing.T) {
	client := newTestRedis(t)
	prefix := "test:lock:" + uuid.NewString() + ":"
	l := NewRedis(client, prefix, 5*time.Second)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, ErrNotAcquired)

	unlock()
	exists, err := client.Exists(context.Background(), prefix+"k").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRedis_ReleaseKeepsForeignToken(t *testing.T) {
	client := newTestRedis(t)
	prefix := "test:lock:" + uuid.NewString() + ":"
	l := NewRedis(client, prefix, 50*time.Millisecond)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)

	// the lock expires and another holder takes it
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, client.Set(ctx, prefix+"k", "other-holder", time.Minute).Err())

	unlock()
	val, err := client.Get(ctx, prefix+"k").Result()
	require.NoError(t, err)
	assert.Equal(t, "other-holder", val)
	client.Del(ctx, prefix+"k")
}
