package errors

// Postgres helpers that map pgx errors onto project codes

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes a read-only source can run into
const (
	pgErrUndefinedTable            = "42P01"
	pgErrUndefinedColumn           = "42703"
	pgErrInsufficientPrivilege     = "42501"
	pgErrInvalidTextRepresentation = "22P02"
	pgErrQueryCanceled             = "57014"
	pgErrCannotConnectNow          = "57P03"
	pgErrTooManyConnections        = "53300"
)

// ExtractPgError returns the root *pgconn.PgError if there is one
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// DBErrorCode maps a Postgres error to an ErrorCode
// ok is false when err is not a PgError
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch pgErr.Code {
	case pgErrUndefinedTable:
		return ErrorCodeNotFound, true
	case pgErrUndefinedColumn, pgErrInvalidTextRepresentation:
		return ErrorCodeDataFormat, true
	case pgErrInsufficientPrivilege:
		return ErrorCodeInvalidArgument, true
	case pgErrQueryCanceled, pgErrCannotConnectNow, pgErrTooManyConnections:
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a pg error with a mapped ErrorCode and message, nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if stderrs.Is(err, context.DeadlineExceeded) || stderrs.Is(err, context.Canceled) {
		return Wrap(err, ErrorCodeUnavailable, msg)
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	out := Wrap(err, code, msg)
	if pgErr, ok := ExtractPgError(err); ok {
		if col := strings.TrimSpace(pgErr.ColumnName); col != "" {
			out = WithField(out, col)
		}
	}
	return out
}
