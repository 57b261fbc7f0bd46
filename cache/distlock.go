package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const retryDelay = 50 * time.Millisecond

// Locker 在持有命名锁期间执行操作
type Locker interface {
	WithLock(ctx context.Context, name string, expiry time.Duration, action func() error) error
}

// DistributedLockService 基于 redsync 的分布式锁服务
type DistributedLockService struct {
	rs *redsync.Redsync
}

// NewLockService 创建分布式锁服务
func NewLockService(client redis.UniversalClient) *DistributedLockService {
	return &DistributedLockService{rs: redsync.New(goredis.NewPool(client))}
}

// WithLock 获取锁后执行 action 并释放锁。获取失败返回 ErrLockNotAcquired，
// action 的错误原样返回
func (s *DistributedLockService) WithLock(ctx context.Context, name string, expiry time.Duration, action func() error) error {
	// 重试时长覆盖锁的过期时间，等待方不会早于持有方放弃
	mutex := s.rs.NewMutex(name,
		redsync.WithExpiry(expiry),
		redsync.WithTries(int(expiry/retryDelay)+1),
		redsync.WithRetryDelay(retryDelay),
		redsync.WithDriftFactor(0.01),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, name, err)
	}
	defer func() {
		_, _ = mutex.UnlockContext(context.WithoutCancel(ctx))
	}()

	return action()
}
