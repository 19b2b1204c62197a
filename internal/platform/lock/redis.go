// Package lock provides the posting locks used by the dispatcher: a Redis
// backed implementation for multi-instance deployments and an in-process one.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/shauritanga/twa-system/internal/apperrors"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
)

// retryInterval is the pause between attempts while another holder has the key.
const retryInterval = 50 * time.Millisecond

// NewRedisClient connects to Redis and pings it once.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisLocker implements portsrepo.Locker with bsm/redislock.
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker wraps a connected client.
func NewRedisLocker(rdb redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

var _ portsrepo.Locker = (*RedisLocker)(nil)

// Obtain waits up to ttl for the key, retrying at a fixed interval.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (portsrepo.Lock, error) {
	retries := int(ttl / retryInterval)
	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryInterval), retries),
	})
	if err != nil {
		return nil, mapObtainError(key, err)
	}
	return lock, nil
}

func mapObtainError(key string, err error) error {
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%w: lock %s is held elsewhere", apperrors.ErrConcurrencyConflict, key)
	}
	return fmt.Errorf("failed to obtain lock %s: %w", key, err)
}
