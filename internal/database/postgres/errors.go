package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koustreak/DatServe/internal/errs"
)

// PostgreSQL SQLSTATE error codes (read-relevant only)
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrConnectionException = "08000"
	pgErrConnectionNotExist  = "08003"
	pgErrConnectionFailure   = "08006"
	pgErrInvalidPassword     = "28P01"
	pgErrInvalidAuth         = "28000"
	pgErrUnknownDatabase     = "3D000"
	pgErrInsufficientPriv    = "42501"
	pgErrSyntaxError         = "42601"
	pgErrUndefinedTable      = "42P01"
	pgErrUndefinedColumn     = "42703"
	pgErrTooManyConnections  = "53300"
	pgErrQueryCanceled       = "57014"
)

// mapError converts a pgx error into a classified errs.Error.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.ErrKindTimeout, "postgres operation timed out", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrConnectionException, pgErrConnectionNotExist, pgErrConnectionFailure:
			return errs.Wrap(errs.ErrKindConnectionFailed, "database connection failed", err)
		case pgErrInvalidPassword, pgErrInvalidAuth:
			return errs.Wrap(errs.ErrKindConnectionFailed, "authentication failed", err)
		case pgErrUnknownDatabase:
			return errs.Wrap(errs.ErrKindConnectionFailed, "database does not exist", err)
		case pgErrInsufficientPriv:
			return errs.Wrap(errs.ErrKindPermissionDenied, "permission denied", err)
		case pgErrSyntaxError, pgErrUndefinedTable, pgErrUndefinedColumn:
			return errs.Wrap(errs.ErrKindQueryFailed, "query error: "+pgErr.Message, err)
		case pgErrTooManyConnections:
			return errs.Wrap(errs.ErrKindUnavailable, "too many connections", err)
		case pgErrQueryCanceled:
			return errs.Wrap(errs.ErrKindTimeout, "query canceled", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errs.Wrap(errs.ErrKindTimeout, "postgres connection timed out", err)
		}
		return errs.Wrap(errs.ErrKindConnectionFailed, "database unreachable", err)
	}

	return errs.Wrap(errs.ErrKindUnknown, err.Error(), err)
}
