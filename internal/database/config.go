package database

import (
	"strings"
	"time"

	"github.com/koustreak/DatServe/internal/errs"
)

// Driver identifies the database engine.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds everything needed to build one connection pool. It is a plain
// value: hand a copy to a pool constructor and the pool keeps that copy for
// its whole lifetime — later edits to the original never reach a live pool.
type Config struct {
	Driver   Driver
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // postgres only; defaults to "disable"

	// Pool sizing
	MaxConns int32 // maximum number of open connections in the pool
	MinConns int32 // idle connections kept warm (postgres) / max idle (mysql)

	// QueueLimit caps how many callers may be waiting for a connection on
	// top of MaxConns executing ones. 0 means no cap.
	QueueLimit int32

	// Timeouts
	ConnectTimeout time.Duration // limit for building + validating a new pool
	QueryTimeout   time.Duration // default per-query deadline applied by callers
}

// DefaultConfig returns production-ready pool settings with no connection
// target. Callers fill in Driver/Host/Port/User/Database before use.
func DefaultConfig() Config {
	return Config{
		Driver:         DriverPostgres,
		SSLMode:        "disable",
		MaxConns:       25,
		MinConns:       5,
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   30 * time.Second,
	}
}

// Validate checks the invariants every pool construction relies on:
// a known driver and non-empty host, port, user and database name.
// The password is allowed to be empty. It returns an invalid-input error
// naming every missing field, so callers can reject bad requests before
// any connection attempt is made.
func (c Config) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Port <= 0 {
		missing = append(missing, "port")
	}
	if c.User == "" {
		missing = append(missing, "username")
	}
	if c.Database == "" {
		missing = append(missing, "database")
	}
	if len(missing) > 0 {
		return errs.Newf(errs.ErrKindInvalidInput,
			"missing required fields: %s", strings.Join(missing, ", "))
	}

	switch c.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown driver: %q", c.Driver)
	}

	return nil
}

// Merge overlays override onto c and returns the result. Zero-value fields
// in override keep the value from c, so partial reconfiguration requests
// only need to carry the fields they change. An empty override password
// keeps the current one.
func (c Config) Merge(override Config) Config {
	merged := c
	if override.Driver != "" {
		merged.Driver = override.Driver
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.SSLMode != "" {
		merged.SSLMode = override.SSLMode
	}
	if override.MaxConns != 0 {
		merged.MaxConns = override.MaxConns
	}
	if override.MinConns != 0 {
		merged.MinConns = override.MinConns
	}
	if override.QueueLimit != 0 {
		merged.QueueLimit = override.QueueLimit
	}
	if override.ConnectTimeout != 0 {
		merged.ConnectTimeout = override.ConnectTimeout
	}
	if override.QueryTimeout != 0 {
		merged.QueryTimeout = override.QueryTimeout
	}
	return merged
}

// Redacted returns a copy of c with credentials blanked, safe for status
// endpoints and logs.
func (c Config) Redacted() Config {
	c.Password = ""
	return c
}
