// Package counters serializes changes to shared integer counters.
//
// Every change runs as one transaction that locks the owner row, re-reads
// the counter, applies the change and writes it back. Writers on the same
// owner queue behind the row lock; writers on different owners never touch
// each other's locks.
package counters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/dmitrijs2005/campushub/internal/dbx"
	"github.com/dmitrijs2005/campushub/internal/logging"
	"github.com/dmitrijs2005/campushub/internal/server/models"
	counterrepo "github.com/dmitrijs2005/campushub/internal/server/repositories/counters"
)

// Repositories vends a counters repository bound to a transaction.
type Repositories interface {
	Counters(db dbx.DBTX) counterrepo.Repository
}

// MutateFunc receives the counter value read under the lock and returns the
// value to persist. tx is the locking transaction, so related rows written
// through it commit or roll back together with the counter.
type MutateFunc func(ctx context.Context, tx dbx.DBTX, current int64) (int64, error)

type Mutator struct {
	tx     dbx.Transactor
	repos  Repositories
	wait   time.Duration
	logger logging.Logger
}

// NewMutator builds a Mutator whose convenience methods wait at most wait
// for a row lock.
func NewMutator(tx dbx.Transactor, repos Repositories, wait time.Duration, l logging.Logger) *Mutator {
	return &Mutator{
		tx:     tx,
		repos:  repos,
		wait:   wait,
		logger: l.With("module", "counters"),
	}
}

// WithLockedOwner makes a single attempt: lock the owner row waiting at most
// wait, apply fn to the current value and persist the result. It fails with
// common.ErrLockTimeout if the lock is not acquired in time and with
// common.ErrCounterUnderflow if fn returns a negative value. Nothing is
// written on failure.
func (m *Mutator) WithLockedOwner(ctx context.Context, owner models.CounterOwner, wait time.Duration, fn MutateFunc) (int64, error) {
	var result int64

	err := m.tx.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := m.repos.Counters(tx)

		if err := repo.SetLockTimeout(ctx, wait); err != nil {
			return err
		}

		current, err := repo.Lock(ctx, owner)
		if err != nil {
			return err
		}

		next, err := fn(ctx, tx, current)
		if err != nil {
			return err
		}
		if next < 0 {
			return fmt.Errorf("%w: %s would become %d", common.ErrCounterUnderflow, owner, next)
		}
		if next == current {
			result = current
			return nil
		}

		if err := repo.Set(ctx, owner, next); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return 0, err
	}

	return result, nil
}

// Increase adds one to the owner's counter. do, when non-nil, runs in the
// same transaction after the lock is held.
func (m *Mutator) Increase(ctx context.Context, owner models.CounterOwner, do dbx.TxFunc) (int64, error) {
	return m.Add(ctx, owner, 1, do)
}

// Decrease subtracts one from the owner's counter.
func (m *Mutator) Decrease(ctx context.Context, owner models.CounterOwner, do dbx.TxFunc) (int64, error) {
	return m.Add(ctx, owner, -1, do)
}

// Add applies delta to the owner's counter. A lock timeout is retried once
// with the same wait; a second timeout is returned to the caller.
func (m *Mutator) Add(ctx context.Context, owner models.CounterOwner, delta int64, do dbx.TxFunc) (int64, error) {
	fn := func(ctx context.Context, tx dbx.DBTX, current int64) (int64, error) {
		if do != nil {
			if err := do(ctx, tx); err != nil {
				return 0, err
			}
		}
		return current + delta, nil
	}

	v, err := m.WithLockedOwner(ctx, owner, m.wait, fn)
	if !errors.Is(err, common.ErrLockTimeout) {
		return v, err
	}

	m.logger.Warn(ctx, "counter lock timeout, retrying", "owner", owner.String(), "wait", m.wait.String())

	v, err = m.WithLockedOwner(ctx, owner, m.wait, fn)
	if errors.Is(err, common.ErrLockTimeout) {
		m.logger.Error(ctx, "counter lock timeout after retry", "owner", owner.String())
	}
	return v, err
}
