package dbx

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes we translate.
const (
	pgUniqueViolation  = "23505"
	pgLockNotAvailable = "55P03"
	pgInvalidText      = "22P02"
)

// TranslateError maps driver errors onto common sentinels. Anything it does
// not recognise is wrapped as "db error".
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", common.ErrAlreadyExists, pgErr.ConstraintName)
		case pgLockNotAvailable:
			return fmt.Errorf("%w: %s", common.ErrLockTimeout, pgErr.Message)
		case pgInvalidText:
			return fmt.Errorf("%w: %s", common.ErrValidation, pgErr.Message)
		}
	}

	return fmt.Errorf("db error: %w", err)
}
