package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultCustomerLockTTL = 30 * time.Second

// redisStore defines the operations the locker needs.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(scope, id string) string
}

// CustomerLocker serializes cascade execution per customer. Two concurrent
// deletions for the same customer would double-count wallet effects; the lock
// forces the second one to fail fast instead.
type CustomerLocker struct {
	client redisStore
	ttl    time.Duration
}

// Release frees one acquired lock. Safe to call once and only once.
type Release func(ctx context.Context) error

// NewCustomerLocker constructs a Redis-backed per-customer locker.
func NewCustomerLocker(client redisStore, ttl time.Duration) (*CustomerLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for customer locks")
	}
	if ttl <= 0 {
		ttl = defaultCustomerLockTTL
	}
	return &CustomerLocker{client: client, ttl: ttl}, nil
}

// Acquire takes the customer's cascade lock for the configured TTL. Returns
// false without error when another holder owns it.
func (l *CustomerLocker) Acquire(ctx context.Context, customerID uuid.UUID) (bool, Release, error) {
	if customerID == uuid.Nil {
		return false, nil, errors.New("customer id is required")
	}

	key := l.client.LockKey("customer_cascade", customerID.String())
	owner := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return false, nil, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return false, nil, nil
	}

	release := func(ctx context.Context) error {
		value, err := l.client.Get(ctx, key)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return fmt.Errorf("read lock owner: %w", err)
		}
		// TTL may have expired and another cascade taken over
		if value != owner {
			return nil
		}
		if err := l.client.Del(ctx, key); err != nil {
			return fmt.Errorf("delete lock: %w", err)
		}
		return nil
	}
	return true, release, nil
}
