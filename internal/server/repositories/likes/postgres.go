package likes

import (
	"context"

	"github.com/dmitrijs2005/campushub/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, commentID, userID string) (bool, error) {
	query :=
		`INSERT INTO comment_likes (comment_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	return r.exec(ctx, query, commentID, userID)
}

func (r *PostgresRepository) Remove(ctx context.Context, commentID, userID string) (bool, error) {
	query :=
		`DELETE FROM comment_likes
		 WHERE comment_id = $1 AND user_id = $2
		 `

	return r.exec(ctx, query, commentID, userID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, dbx.TranslateError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, dbx.TranslateError(err)
	}

	return n > 0, nil
}
