package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/campushub/internal/dbx"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/comments"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/counters"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/likes"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/posts"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/reports"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
	Comments(db dbx.DBTX) comments.Repository
	Likes(db dbx.DBTX) likes.Repository
	Reports(db dbx.DBTX) reports.Repository
	Counters(db dbx.DBTX) counters.Repository
}
