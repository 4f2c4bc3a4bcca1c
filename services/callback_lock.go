package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CallbackLockTTL bounds how long one payment callback may hold its lock
const CallbackLockTTL = 30 * time.Second

// CallbackLocker serialises concurrent callbacks for the same gateway order.
// The unique invoice constraint on orders stays the authority; the lock only
// keeps duplicate callbacks from racing into the materializer together.
type CallbackLocker interface {
	// TryLock returns a release func and true when the lock was taken
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error)
}

var lockerInstance CallbackLocker = NewLocalLocker()

// GetLocker returns the configured callback locker
func GetLocker() CallbackLocker {
	return lockerInstance
}

// SetLocker sets the callback locker
func SetLocker(l CallbackLocker) {
	lockerInstance = l
}

// releaseScript deletes the key only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements CallbackLocker with SET NX PX
type RedisLocker struct {
	rdb *redis.Client
}

// NewRedisLocker connects to redisURL and verifies the connection
func NewRedisLocker(ctx context.Context, redisURL string) (*RedisLocker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisLocker{rdb: rdb}, nil
}

// TryLock takes "lock:payment:<key>" if free
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	lockKey := "lock:payment:" + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		if err := releaseScript.Run(context.Background(), l.rdb, []string{lockKey}, token).Err(); err != nil && err != redis.Nil {
			zap.L().Warn("failed to release payment lock", zap.String("key", lockKey), zap.Error(err))
		}
	}
	return release, true, nil
}

// Close closes the Redis connection
func (l *RedisLocker) Close() error {
	return l.rdb.Close()
}

// LocalLocker is an in-process CallbackLocker for single-instance deployments and tests
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewLocalLocker creates an empty in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), now: time.Now}
}

// TryLock takes key unless another holder has it and its ttl has not passed
func (l *LocalLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expires, ok := l.held[key]; ok && now.Before(expires) {
		return nil, false, nil
	}
	expires := now.Add(ttl)
	l.held[key] = expires

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(expires) {
			delete(l.held, key)
		}
	}
	return release, true, nil
}
