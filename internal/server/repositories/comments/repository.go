package comments

import (
	"context"

	"github.com/dmitrijs2005/campushub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	// SoftDelete marks a live comment deleted. Deleting a missing or already
	// deleted comment yields common.ErrorNotFound.
	SoftDelete(ctx context.Context, id string) error
}
