package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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
		{"no rows", pgx.ErrNoRows, errs.IsNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", pgx.ErrNoRows), errs.IsNotFound},
		{"connection failure", &pgconn.PgError{Code: pgErrConnectionFailure}, errs.IsConnectionFailed},
		{"bad password", &pgconn.PgError{Code: pgErrInvalidPassword}, errs.IsConnectionFailed},
		{"unknown database", &pgconn.PgError{Code: pgErrUnknownDatabase}, errs.IsConnectionFailed},
		{"insufficient privilege", &pgconn.PgError{Code: pgErrInsufficientPriv}, errs.IsPermissionDenied},
		{"undefined table", &pgconn.PgError{Code: pgErrUndefinedTable}, errs.IsQueryFailed},
		{"syntax error", &pgconn.PgError{Code: pgErrSyntaxError}, errs.IsQueryFailed},
		{"too many connections", &pgconn.PgError{Code: pgErrTooManyConnections}, errs.IsUnavailable},
		{"query canceled", &pgconn.PgError{Code: pgErrQueryCanceled}, errs.IsTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.True(t, tt.want(got), "got kind %v", errs.KindOf(got))
			// The original driver error stays reachable for callers that
			// need it.
			assert.True(t, errors.Is(got, tt.in))
		})
	}
}

func TestMapError_UnclassifiedKeepsMessage(t *testing.T) {
	err := mapError(errors.New("something odd"))
	assert.Equal(t, errs.ErrKindUnknown, errs.KindOf(err))
	assert.Contains(t, err.Error(), "something odd")
}
