package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/dmitrijs2005/campushub/internal/logging"
	"github.com/dmitrijs2005/campushub/internal/server/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTTL = 3 * time.Minute

func newTestGuard(t *testing.T) (*Guard, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewGuard(session.NewRedisStore(client, "test:"), testTTL, logging.Nop{}), mr
}

func TestGuard_DuplicateWithinTTL(t *testing.T) {
	ctx := context.Background()
	g, mr := newTestGuard(t)

	r, err := g.CheckAndReserve(ctx, "createComment", "u1", "hello")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, testTTL, mr.TTL("test:"+r.Key))

	_, err = g.CheckAndReserve(ctx, "createComment", "u1", "hello")
	assert.ErrorIs(t, err, common.ErrDuplicateRequest)

	mr.FastForward(testTTL + time.Second)

	_, err = g.CheckAndReserve(ctx, "createComment", "u1", "hello")
	assert.NoError(t, err)
}

func TestGuard_DistinctPartsIndependent(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGuard(t)

	_, err := g.CheckAndReserve(ctx, "op", "u1", "a")
	require.NoError(t, err)
	_, err = g.CheckAndReserve(ctx, "op", "u1", "b")
	require.NoError(t, err)

	// order matters
	_, err = g.CheckAndReserve(ctx, "op", "a", "u1")
	require.NoError(t, err)
}

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
	}{
		{"boundary shift", []string{"ab", "c"}, []string{"a", "bc"}},
		{"empty part", []string{"a", ""}, []string{"a"}},
		{"order", []string{"x", "y"}, []string{"y", "x"}},
		{"separator inside part", []string{"a|b"}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, Key(tt.a...), Key(tt.b...))
		})
	}

	assert.Equal(t, Key("op", "u1"), Key("op", "u1"))
}

func TestGuard_Release(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGuard(t)

	r, err := g.CheckAndReserve(ctx, "signup", "a@b.c")
	require.NoError(t, err)

	g.Release(ctx, r)
	g.Release(ctx, nil)

	_, err = g.CheckAndReserve(ctx, "signup", "a@b.c")
	assert.NoError(t, err)
}

func TestGuard_EmptyParts(t *testing.T) {
	g, _ := newTestGuard(t)

	_, err := g.CheckAndReserve(context.Background())
	assert.ErrorIs(t, err, common.ErrValidation)
}

type failingStore struct{ err error }

func (f failingStore) Exists(context.Context, string) (bool, error) { return false, f.err }
func (f failingStore) Set(context.Context, string, string, time.Duration) error {
	return f.err
}
func (f failingStore) Delete(context.Context, string) error { return f.err }

func TestGuard_StoreUnavailable(t *testing.T) {
	g := NewGuard(failingStore{err: errors.New("dial tcp: refused")}, testTTL, logging.Nop{})

	_, err := g.CheckAndReserve(context.Background(), "op", "u1")
	assert.ErrorIs(t, err, common.ErrorUnavailable)

	// release failures are swallowed
	g.Release(context.Background(), &Reservation{Key: "k"})
}
