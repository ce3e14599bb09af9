package comments

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/campushub/internal/dbx"
	"github.com/dmitrijs2005/campushub/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO comments (id, post_id, author_id, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING like_count, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, c.ID, c.PostID, c.AuthorID, c.Body).
		Scan(&c.LikeCount, &c.CreatedAt)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}

	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query :=
		`SELECT id, post_id, author_id, body, like_count, created_at, deleted_at FROM comments
		 WHERE id = $1
		 `

	c := &models.Comment{}
	var deletedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.LikeCount, &c.CreatedAt, &deletedAt)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}

	return c, nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) error {
	query :=
		`UPDATE comments SET deleted_at = now()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING id
		 `

	var got string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&got); err != nil {
		return dbx.TranslateError(err)
	}

	return nil
}
