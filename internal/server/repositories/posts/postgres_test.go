package posts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/dmitrijs2005/campushub/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+posts\s*\(id,\s*author_id,\s*kind,\s*title,\s*body\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+comment_count,\s*created_at\s*$`).
		WithArgs(sqlmock.AnyArg(), "u-1", "QUESTION", "Title", "Body").
		WillReturnRows(sqlmock.NewRows([]string{"comment_count", "created_at"}).AddRow(int64(0), now))

	got, err := repo.Create(context.Background(), &models.Post{AuthorID: "u-1", Kind: models.PostKindQuestion, Title: "Title", Body: "Body"})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Zero(t, got.CommentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UnknownAuthor(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+posts`).WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Post{AuthorID: "nope", Kind: models.PostKindTeam})
	assert.ErrorContains(t, err, "db error")
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "author_id", "kind", "title", "body", "comment_count", "created_at"}).
		AddRow("p-1", "u-1", "PROJECT", "t", "b", int64(3), time.Now())
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*author_id,\s*kind,\s*title,\s*body,\s*comment_count,\s*created_at\s+FROM\s+posts\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("p-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, models.PostKindProject, got.Kind)
	assert.Equal(t, int64(3), got.CommentCount)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+posts`).WithArgs("p-x").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "p-x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
