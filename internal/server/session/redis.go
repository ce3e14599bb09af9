// Package session is the shared key/value store behind revocation markers
// and idempotency reservations.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:"

// RedisStore keeps every key under a common prefix so several deployments
// can share one Redis database.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

// Exists reports whether key is present and not expired.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return n > 0, nil
}

// Get returns the value stored under key; ok is false when absent.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key for ttl.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// MarkRevoked records the revocation instant of subject in unix
// milliseconds. A later call overwrites an earlier marker.
func (s *RedisStore) MarkRevoked(ctx context.Context, subject string, at time.Time, ttl time.Duration) error {
	return s.Set(ctx, revokedPrefix+subject, strconv.FormatInt(at.UnixMilli(), 10), ttl)
}

// RevokedAt returns the instant recorded by MarkRevoked.
func (s *RedisStore) RevokedAt(ctx context.Context, subject string) (time.Time, bool, error) {
	v, ok, err := s.Get(ctx, revokedPrefix+subject)
	if err != nil || !ok {
		return time.Time{}, false, err
	}

	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt revocation marker for %s: %w", subject, err)
	}
	return time.UnixMilli(ms), true, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
