// Package idempotency suppresses duplicate execution of mutating operations
// retried by clients within a short window.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/dmitrijs2005/campushub/internal/logging"
)

const (
	keyPrefix = "idem:"
	sentinel  = "1"
)

// Store is the subset of the session store the guard needs.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Reservation identifies an accepted operation so it can be released if the
// operation fails before it commits.
type Reservation struct {
	Key string
}

type Guard struct {
	store  Store
	ttl    time.Duration
	logger logging.Logger
}

func NewGuard(store Store, ttl time.Duration, l logging.Logger) *Guard {
	return &Guard{store: store, ttl: ttl, logger: l.With("module", "idempotency")}
}

// Key derives the store key for parts. Each part is length prefixed before
// hashing, so ["ab","c"] and ["a","bc"] map to different keys.
func Key(parts ...string) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// CheckAndReserve accepts the first request for parts and rejects repeats
// with ErrDuplicateRequest until the TTL elapses.
//
// The lookup and the write are two separate round trips. Two requests
// landing in the same instant may both be accepted.
func (g *Guard) CheckAndReserve(ctx context.Context, parts ...string) (*Reservation, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty idempotency key", common.ErrValidation)
	}

	key := Key(parts...)

	exists, err := g.store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: idempotency lookup: %v", common.ErrorUnavailable, err)
	}
	if exists {
		g.logger.Info(ctx, "duplicate request suppressed", "operation", parts[0], "key", key)
		return nil, common.ErrDuplicateRequest
	}

	if err := g.store.Set(ctx, key, sentinel, g.ttl); err != nil {
		return nil, fmt.Errorf("%w: idempotency reserve: %v", common.ErrorUnavailable, err)
	}

	return &Reservation{Key: key}, nil
}

// Release drops a reservation so a retry is treated as a fresh attempt.
// A nil reservation is ignored. Failures are logged; the key still expires
// on its own.
func (g *Guard) Release(ctx context.Context, r *Reservation) {
	if r == nil {
		return
	}
	if err := g.store.Delete(ctx, r.Key); err != nil {
		g.logger.Warn(ctx, "failed to release idempotency key", "key", r.Key, "error", err)
	}
}
