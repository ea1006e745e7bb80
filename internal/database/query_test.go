package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/DatServe/internal/errs"
)

func TestSelectBuilder_Postgres(t *testing.T) {
	sql, args, err := Select("users", DialectPostgres).
		Columns("id", "name").
		Where("active", "=", true).
		Where("age", ">=", 21).
		OrderBy("created_at", Desc).
		Limit(20).
		Offset(40).
		Build()

	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "id", "name" FROM "users" WHERE "active" = $1 AND "age" >= $2 ORDER BY "created_at" DESC LIMIT $3 OFFSET $4`,
		sql)
	assert.Equal(t, []any{true, 21, 20, 40}, args)
}

func TestSelectBuilder_MySQL(t *testing.T) {
	sql, args, err := Select("users", DialectMySQL).
		Where("name", "LIKE", "a%").
		Limit(5).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `users` WHERE `name` LIKE ? LIMIT ?", sql)
	assert.Equal(t, []any{"a%", 5}, args)
}

func TestSelectBuilder_Defaults(t *testing.T) {
	sql, args, err := Select("events", DialectPostgres).Build()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "events"`, sql)
	assert.Empty(t, args)
}

func TestSelectBuilder_RejectsUnknownOperator(t *testing.T) {
	_, _, err := Select("users", DialectPostgres).
		Where("id", "; DROP TABLE users --", 1).
		Build()

	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestSelectBuilder_QuotesHostileIdentifiers(t *testing.T) {
	sql, _, err := Select(`us"ers`, DialectPostgres).Build()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "us""ers"`, sql)

	sql, _, err = Select("us`ers", DialectMySQL).Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `us``ers`", sql)
}
