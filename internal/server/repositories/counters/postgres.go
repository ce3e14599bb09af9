package counters

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/dmitrijs2005/campushub/internal/dbx"
	"github.com/dmitrijs2005/campushub/internal/server/models"
)

type column struct {
	table string
	name  string
}

// columnFor is the closed mapping from counter kind to SQL identifiers. Table
// and column names never come from callers.
func columnFor(kind models.CounterKind) (column, error) {
	switch kind {
	case models.CounterPostComments:
		return column{table: "posts", name: "comment_count"}, nil
	case models.CounterCommentLikes:
		return column{table: "comments", name: "like_count"}, nil
	default:
		return column{}, fmt.Errorf("%w: unknown counter %q", common.ErrValidation, kind)
	}
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) SetLockTimeout(ctx context.Context, wait time.Duration) error {
	ms := wait.Milliseconds()
	// 0 would disable the timeout altogether
	if ms < 1 {
		ms = 1
	}

	query := `SELECT set_config('lock_timeout', $1, true)`

	if _, err := r.db.ExecContext(ctx, query, fmt.Sprintf("%dms", ms)); err != nil {
		return dbx.TranslateError(err)
	}
	return nil
}

func (r *PostgresRepository) Lock(ctx context.Context, owner models.CounterOwner) (int64, error) {
	col, err := columnFor(owner.Kind)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, col.name, col.table)

	var value int64
	if err := r.db.QueryRowContext(ctx, query, owner.ID).Scan(&value); err != nil {
		return 0, dbx.TranslateError(err)
	}
	return value, nil
}

func (r *PostgresRepository) Set(ctx context.Context, owner models.CounterOwner, value int64) error {
	col, err := columnFor(owner.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE id = $2`, col.table, col.name)

	res, err := r.db.ExecContext(ctx, query, value, owner.ID)
	if err != nil {
		return dbx.TranslateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.TranslateError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
