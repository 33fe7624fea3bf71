package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLockKey = "integrator:sync:lock"

// RedisRunLock implements RunLock on Redis, suitable for deployments where
// more than one integrator instance may be scheduled. Acquisition is a
// single atomic SETNX with a TTL, so a crashed holder cannot wedge the lock
// forever.
type RedisRunLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisRunLock creates a Redis-backed run lock and verifies the
// connection.
func NewRedisRunLock(cfg RedisConfig, ttl time.Duration) (*RedisRunLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRunLock{client: client, key: defaultLockKey, ttl: ttl}, nil
}

// NewRedisRunLockWithClient creates a lock on an existing client. Useful for
// testing or when sharing a client across components.
func NewRedisRunLockWithClient(client *redis.Client, key string, ttl time.Duration) *RedisRunLock {
	if key == "" {
		key = defaultLockKey
	}
	return &RedisRunLock{client: client, key: key, ttl: ttl}
}

// Acquire attempts to take the lock. Returns false if another holder owns it.
func (l *RedisRunLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return ok, nil
}

// Release frees the lock.
func (l *RedisRunLock) Release(ctx context.Context) error {
	if err := l.client.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (l *RedisRunLock) Close() error {
	return l.client.Close()
}

var _ RunLock = (*RedisRunLock)(nil)
