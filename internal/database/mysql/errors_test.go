package mysql

import (
	"database/sql"
	"errors"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/koustreak/DatServe/internal/errs"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want func(error) bool
	}{
		{"nil passes through", nil, nil},
		{"no rows", sql.ErrNoRows, errs.IsNotFound},
		{"access denied", &gomysql.MySQLError{Number: errAccessDenied, Message: "Access denied for user"}, errs.IsConnectionFailed},
		{"unknown database", &gomysql.MySQLError{Number: errUnknownDatabase, Message: "Unknown database"}, errs.IsConnectionFailed},
		{"table access denied", &gomysql.MySQLError{Number: errTableAccess, Message: "SELECT command denied"}, errs.IsPermissionDenied},
		{"bad field", &gomysql.MySQLError{Number: errBadFieldError, Message: "Unknown column"}, errs.IsQueryFailed},
		{"parse error", &gomysql.MySQLError{Number: errParseError, Message: "syntax error"}, errs.IsQueryFailed},
		{"no such table", &gomysql.MySQLError{Number: errNoSuchTable, Message: "Table doesn't exist"}, errs.IsQueryFailed},
		{"too many connections", &gomysql.MySQLError{Number: errConCount, Message: "Too many connections"}, errs.IsUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.True(t, tt.want(got), "got kind %v", errs.KindOf(got))
			assert.True(t, errors.Is(got, tt.in))
		})
	}
}

func TestMapError_UnclassifiedKeepsMessage(t *testing.T) {
	err := mapError(errors.New("something odd"))
	assert.Equal(t, errs.ErrKindUnknown, errs.KindOf(err))
	assert.Contains(t, err.Error(), "something odd")
}
