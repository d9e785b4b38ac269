package repo

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Tx is the subset of pgx used by repositories. Both *pgxpool.Pool and
// pgx.Tx satisfy it.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Builder produces postgres-flavoured statements.
var Builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const uniqueViolationCode = "23505"

var ErrUniqueViolation = errors.New("unique constraint violation")

// UniqueViolationError carries the name of the violated constraint.
type UniqueViolationError struct {
	Constraint string
	Err        error
}

func (e *UniqueViolationError) Error() string {
	return "unique constraint violation: " + e.Constraint
}

func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

func (e *UniqueViolationError) Is(target error) bool {
	return target == ErrUniqueViolation
}

// MapError converts postgres unique violations into *UniqueViolationError and
// returns every other error unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return &UniqueViolationError{Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}

// IsUniqueViolation reports whether err is a unique violation on the given
// constraint. An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var uv *UniqueViolationError
	if !errors.As(err, &uv) {
		return false
	}
	return constraint == "" || uv.Constraint == constraint
}

// Exec runs a squirrel statement against tx.
func Exec(ctx context.Context, tx Tx, stmt sq.Sqlizer) (pgconn.CommandTag, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	tag, err := tx.Exec(ctx, query, args...)
	return tag, MapError(err)
}

// QueryRow runs a squirrel statement expected to return a single row.
func QueryRow(ctx context.Context, tx Tx, stmt sq.Sqlizer) (pgx.Row, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, err
	}
	return tx.QueryRow(ctx, query, args...), nil
}

// Query runs a squirrel statement and returns the rows.
func Query(ctx context.Context, tx Tx, stmt sq.Sqlizer) (pgx.Rows, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, err
	}
	return tx.Query(ctx, query, args...)
}
