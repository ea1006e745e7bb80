package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/koustreak/DatServe/internal/errs"
)

// MySQL server error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errConCount        = 1040
	errDBAccessDenied  = 1044
	errAccessDenied    = 1045
	errUnknownDatabase = 1049
	errBadFieldError   = 1054
	errParseError      = 1064
	errTableAccess     = 1142
	errNoSuchTable     = 1146
)

// mapError converts a MySQL driver error into a classified errs.Error.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.ErrKindTimeout, "mysql operation timed out", err)
	}
	if errors.Is(err, driver.ErrBadConn) {
		return errs.Wrap(errs.ErrKindConnectionFailed, "database connection lost", err)
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case errAccessDenied:
			return errs.Wrap(errs.ErrKindConnectionFailed, "authentication failed", err)
		case errUnknownDatabase:
			return errs.Wrap(errs.ErrKindConnectionFailed, "database does not exist", err)
		case errDBAccessDenied, errTableAccess:
			return errs.Wrap(errs.ErrKindPermissionDenied, "permission denied", err)
		case errBadFieldError, errParseError, errNoSuchTable:
			return errs.Wrap(errs.ErrKindQueryFailed, "query error: "+mysqlErr.Message, err)
		case errConCount:
			return errs.Wrap(errs.ErrKindUnavailable, "too many connections", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errs.Wrap(errs.ErrKindTimeout, "mysql connection timed out", err)
		}
		return errs.Wrap(errs.ErrKindConnectionFailed, "database unreachable", err)
	}

	return errs.Wrap(errs.ErrKindUnknown, err.Error(), err)
}
