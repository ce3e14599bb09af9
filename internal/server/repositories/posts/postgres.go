package posts

import (
	"context"

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

// Create inserts post with a zero comment count. comment_count is only ever
// changed through the counters repository.
func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO posts (id, author_id, kind, title, body)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING comment_count, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.ID, post.AuthorID, string(post.Kind), post.Title, post.Body).
		Scan(&post.CommentCount, &post.CreatedAt)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query :=
		`SELECT id, author_id, kind, title, body, comment_count, created_at FROM posts
		 WHERE id = $1
		 `

	post := &models.Post{}
	var kind string
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&post.ID, &post.AuthorID, &kind, &post.Title, &post.Body, &post.CommentCount, &post.CreatedAt)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}
	post.Kind = models.PostKind(kind)

	return post, nil
}
