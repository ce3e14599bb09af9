package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, "test:"), mr
}

func TestRedisStore_SetGetExistsDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	assert.True(t, mr.Exists("test:k"), "key must carry the prefix")

	ok, err = s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))

	ok, err = s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.Set(ctx, "k", "v", 3*time.Minute))
	assert.Equal(t, 3*time.Minute, mr.TTL("test:k"))

	mr.FastForward(3*time.Minute + time.Second)

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Revocation(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	_, ok, err := s.RevokedAt(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	require.NoError(t, s.MarkRevoked(ctx, "u1", at, time.Hour))

	got, ok, err := s.RevokedAt(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(at))

	_, ok, err = s.RevokedAt(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mr.Set("test:revoked:u3", "garbage"))
	_, _, err = s.RevokedAt(ctx, "u3")
	assert.Error(t, err)

	mr.FastForward(2 * time.Hour)
	_, ok, err = s.RevokedAt(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.Ping(ctx))
	mr.Close()

	assert.Error(t, s.Ping(ctx))
	_, err := s.Exists(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, "k", "v", time.Second))
}
