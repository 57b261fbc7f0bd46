package cache

import (
	"context"
	"testing"
	"time"

	"github.com/FrankKleiton/vote-app/config"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachable is an address nothing listens on.
const unreachable = "127.0.0.1:1"

func TestWithLock_RedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: unreachable, DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	ran := false
	err := NewLockService(client).WithLock(context.Background(), "cache_lock:poll:1", 200*time.Millisecond, func() error {
		ran = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.False(t, ran)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, config.CacheConfig{Addr: unreachable})
	assert.Error(t, err)
	assert.Nil(t, client)
}
