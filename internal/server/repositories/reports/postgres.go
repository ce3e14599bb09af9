package reports

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

func (r *PostgresRepository) Create(ctx context.Context, rep *models.Report) (*models.Report, error) {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO reports (id, reporter_id, target_type, target_id, reason)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		rep.ID, rep.ReporterID, string(rep.TargetType), rep.TargetID, rep.Reason).Scan(&rep.CreatedAt)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}

	return rep, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*models.Report, error) {
	query :=
		`SELECT id, reporter_id, target_type, target_id, reason, created_at FROM reports
		 ORDER BY created_at DESC, id
		 LIMIT $1 OFFSET $2
		 `

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}
	defer rows.Close()

	var result []*models.Report
	for rows.Next() {
		rep := &models.Report{}
		var target string
		if err := rows.Scan(&rep.ID, &rep.ReporterID, &target, &rep.TargetID, &rep.Reason, &rep.CreatedAt); err != nil {
			return nil, dbx.TranslateError(err)
		}
		rep.TargetType = models.ReportTarget(target)
		result = append(result, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.TranslateError(err)
	}

	return result, nil
}
