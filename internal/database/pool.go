package database

import "context"

// Pool is the central contract for one live set of database connections.
// All layers above this package talk only to this interface — they never
// import the postgres or mysql packages directly.
//
// A Pool owns its network connections from construction until Close. It is
// safe for concurrent use. Whether new requests are routed to a Pool is
// decided by the Manager, not by the Pool itself: a Pool that has been
// replaced keeps serving callers that already hold it until they finish.
type Pool interface {
	// Acquire checks a single connection out of the pool. The caller must
	// Release it. Used by the prober and by anything that needs connection
	// affinity.
	Acquire(ctx context.Context) (Conn, error)

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) (Row, error)

	// ListTables returns all user-defined table names visible to the
	// configured database user.
	ListTables(ctx context.Context) ([]string, error)

	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, table string) (bool, error)

	// InspectTable returns column details for a single table.
	InspectTable(ctx context.Context, table string) (*TableInfo, error)

	// Stat reports a point-in-time snapshot of pool usage.
	Stat() PoolStat

	// Close drains the pool and releases every connection it owns.
	// Connections checked out by in-flight callers are given until ctx
	// expires to come back; after that the close is forced. Close must not
	// be called while the pool is still routable to new requests.
	Close(ctx context.Context) error
}

// Conn is a single connection checked out of a Pool via Acquire.
type Conn interface {
	// Ping verifies this specific connection is alive.
	Ping(ctx context.Context) error

	// Release returns the connection to its pool. Safe to call once only.
	Release()
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}

// PoolStat is a point-in-time snapshot of pool usage, reported by status
// endpoints.
type PoolStat struct {
	MaxConns   int32 `json:"max_conns"`
	TotalConns int32 `json:"total_conns"`
	IdleConns  int32 `json:"idle_conns"`
	InUseConns int32 `json:"in_use_conns"`
}

// OpenFunc builds and connects a Pool from cfg. The production
// implementation is drivers.Open; tests inject their own.
type OpenFunc func(ctx context.Context, cfg Config) (Pool, error)
