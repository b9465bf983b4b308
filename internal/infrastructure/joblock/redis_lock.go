package joblock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock serializes a named job across service instances. Exactly one holder
// per name at a time; expiry bounds the damage of a crashed holder.
type Lock interface {
	// Acquire attempts to take the lock, returning false when another
	// holder has it
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release frees the lock if this instance still holds it
	Release(ctx context.Context, name string) error
}

// releaseScript deletes the key only when it still carries our token, so an
// expired lock reacquired by another instance is never released from here.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock implements Lock on Redis SETNX
type RedisLock struct {
	client    *redis.Client
	keyPrefix string
	token     string
}

// NewRedisLock creates a Redis-backed job lock. The token identifies this
// process instance for release guarding.
func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{
		client:    client,
		keyPrefix: "billing:joblock:",
		token:     uuid.NewString(),
	}
}

// Acquire attempts to take the lock via SETNX with a TTL in one atomic operation
func (l *RedisLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.keyPrefix+name, l.token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire job lock %q: %w", name, err)
	}
	return acquired, nil
}

// Release frees the lock if this instance still holds it
func (l *RedisLock) Release(ctx context.Context, name string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.keyPrefix + name}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release job lock %q: %w", name, err)
	}
	return nil
}

// Ensure RedisLock implements the interface
var _ Lock = (*RedisLock)(nil)

// NoopLock always acquires. It backs single-instance deployments where no
// Redis is configured; the store-level conflict handling still keeps reruns
// harmless.
type NoopLock struct{}

// NewNoopLock creates a no-op lock
func NewNoopLock() *NoopLock {
	return &NoopLock{}
}

// Acquire always succeeds
func (NoopLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return true, nil
}

// Release is a no-op
func (NoopLock) Release(ctx context.Context, name string) error {
	return nil
}

// Ensure NoopLock implements the interface
var _ Lock = (*NoopLock)(nil)
