package reports

import (
	"context"

	"github.com/dmitrijs2005/campushub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, report *models.Report) (*models.Report, error)
	// List returns reports newest first.
	List(ctx context.Context, limit, offset int) ([]*models.Report, error)
}
