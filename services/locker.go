package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL  = 10 * time.Second
	defaultLockWait = 5 * time.Second
	lockPollEvery   = 50 * time.Millisecond
)

// Locker serializes work keyed by an arbitrary string across callers.
type Locker interface {
	// Acquire blocks until the key is held or ctx ends. The returned func releases it.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// releaseScript deletes the key only while it still carries our token, so an
// expired lock that another owner picked up is never removed by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX lock shared by every instance pointed at the same Redis.
type RedisLocker struct {
	client redisLockClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

type redisLockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// NewRedisLocker builds a lock with the default TTL and wait budget.
func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix, ttl: defaultLockTTL, wait: defaultLockWait}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	client := l.client
	if _, has := ctx.Deadline(); !has {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	fullKey := l.prefix + key
	token := uuid.NewString()
	ticker := time.NewTicker(lockPollEvery)
	defer ticker.Stop()
	for {
		acquired, err := client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("acquire lock %s: %w", fullKey, err)
		}
		if acquired {
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = releaseScript.Run(ctx, client, []string{fullKey}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

// LocalLocker serializes callers within a single process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
	wait  time.Duration
}

type localLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[string]*localLock{}, wait: defaultLockWait}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if _, has := ctx.Deadline(); !has {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, lk)
		return nil, ErrLockTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lk.ch
			l.unref(key, lk)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, lk *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, key)
	}
}
