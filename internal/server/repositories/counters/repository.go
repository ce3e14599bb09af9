// Package counters reads and writes shared integer counters under a row lock.
// It must be used inside a transaction; the lock is released on commit or
// rollback.
package counters

import (
	"context"
	"time"

	"github.com/dmitrijs2005/campushub/internal/server/models"
)

type Repository interface {
	// SetLockTimeout bounds how long the current transaction waits for a
	// row lock.
	SetLockTimeout(ctx context.Context, wait time.Duration) error
	// Lock takes an exclusive lock on the owner row and returns the current
	// counter value.
	Lock(ctx context.Context, owner models.CounterOwner) (int64, error)
	// Set writes value to the owner's counter.
	Set(ctx context.Context, owner models.CounterOwner, value int64) error
}
