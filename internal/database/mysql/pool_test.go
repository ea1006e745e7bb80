package mysql

import (
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/DatServe/internal/database"
)

func TestBuildDSN_RoundTrip(t *testing.T) {
	cfg := database.Config{
		Host:           "db1.internal",
		Port:           3307,
		User:           "app",
		Password:       "p@ss:word/",
		Database:       "appdb",
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   30 * time.Second,
	}

	parsed, err := gomysql.ParseDSN(buildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "app", parsed.User)
	assert.Equal(t, "p@ss:word/", parsed.Passwd, "special characters must survive DSN encoding")
	assert.Equal(t, "db1.internal:3307", parsed.Addr)
	assert.Equal(t, "appdb", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, 10*time.Second, parsed.Timeout)
	assert.Equal(t, 30*time.Second, parsed.ReadTimeout)
}

func TestBuildDSN_DefaultPort(t *testing.T) {
	parsed, err := gomysql.ParseDSN(buildDSN(database.Config{
		Host: "localhost", User: "app", Database: "appdb",
	}))
	require.NoError(t, err)
	assert.Equal(t, "localhost:3306", parsed.Addr)
}
