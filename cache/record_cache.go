package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockExpiry = 5 * time.Second

// PollKey is the cache key of a fully loaded poll.
func PollKey(id uint) string {
	return fmt.Sprintf("poll:%d", id)
}

// UserKey is the cache key of a user.
func UserKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// RecordCache 以 JSON 存储的读穿缓存。Redis 或锁出错时记录日志并按未命中处理
type RecordCache struct {
	client Client
	locker Locker
	ttl    time.Duration
	log    *zap.Logger
}

// NewRecordCache creates a cache. locker may be nil, in which case cache
// fills are not serialized.
func NewRecordCache(client Client, locker Locker, ttl time.Duration, log *zap.Logger) *RecordCache {
	return &RecordCache{
		client: client,
		locker: locker,
		ttl:    ttl,
		log:    log.Named("cache"),
	}
}

// Fetch 获取缓存数据，未命中时调用 load 并缓存非空结果。
// 同一个键的并发回填通过分布式锁和双重检查合并为一次
func Fetch[T any](ctx context.Context, c *RecordCache, key string, load func(context.Context) (*T, error)) (*T, error) {
	if v, ok := lookup[T](ctx, c, key); ok {
		return v, nil
	}

	if c.locker == nil {
		return fill(ctx, c, key, load)
	}

	var (
		out     *T
		loadErr error
	)
	lockErr := c.locker.WithLock(ctx, lockName(key), lockExpiry, func() error {
		if v, ok := lookup[T](ctx, c, key); ok {
			out = v
			return nil
		}
		out, loadErr = fill(ctx, c, key, load)
		return nil
	})
	if lockErr != nil {
		c.log.Warn("cache lock failed, loading without it", zap.String("key", key), zap.Error(lockErr))
		return load(ctx)
	}
	return out, loadErr
}

// Invalidate 删除缓存键。删除在与回填相同的分布式锁内进行，
// 保证正在回填的旧数据不会在删除之后写入。
func (c *RecordCache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		del := func() error {
			return c.client.Del(ctx, key).Err()
		}
		if c.locker == nil {
			c.logInvalidate(key, del())
			continue
		}
		err := c.locker.WithLock(ctx, lockName(key), lockExpiry, del)
		if errors.Is(err, ErrLockNotAcquired) {
			c.log.Warn("cache lock failed, invalidating without it", zap.String("key", key), zap.Error(err))
			err = del()
		}
		c.logInvalidate(key, err)
	}
}

func (c *RecordCache) logInvalidate(key string, err error) {
	if err != nil {
		c.log.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func lockName(key string) string {
	return "cache_lock:" + key
}

func lookup[T any](ctx context.Context, c *RecordCache, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.Warn("cache entry is not valid JSON", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &v, true
}

func fill[T any](ctx context.Context, c *RecordCache, key string, load func(context.Context) (*T, error)) (*T, error) {
	v, err := load(ctx)
	if err != nil || v == nil {
		// Missing rows are not cached: they may be created later.
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache entry encoding failed", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	if err := c.client.Set(ctx, key, data, c.expiration()).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

// expiration 在 TTL 上增加最多 10% 的随机抖动
func (c *RecordCache) expiration() time.Duration {
	return c.ttl + time.Duration(rand.Int63n(int64(c.ttl/10)+1))
}
