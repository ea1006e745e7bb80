package mysql

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/go-sql-driver/mysql" // register driver

	"github.com/koustreak/DatServe/internal/database"
	"github.com/koustreak/DatServe/internal/errs"
)

// Pool implements database.Pool for MySQL using database/sql.
type Pool struct {
	db  *sql.DB
	cfg database.Config
}

// New builds a connection pool for cfg. database/sql dials lazily;
// callers verify reachability with a probe before routing traffic here.
func New(_ context.Context, cfg database.Config) (*Pool, error) {
	db, err := buildPool(cfg)
	if err != nil {
		return nil, err
	}
	return &Pool{db: db, cfg: cfg}, nil
}

// Acquire checks a single connection out of the pool.
func (p *Pool) Acquire(ctx context.Context) (database.Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return &sqlConn{conn: conn}, nil
}

// Ping verifies the database is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	return mapError(p.db.PingContext(ctx))
}

// Query executes a query returning multiple rows.
func (p *Pool) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return &mysqlRows{rows: rows}, nil
}

// QueryRow executes a query returning a single row. Errors surface from
// the returned row's Scan.
func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) (database.Row, error) {
	return &mysqlRow{row: p.db.QueryRowContext(ctx, query, args...)}, nil
}

// Stat reports a point-in-time snapshot of pool usage.
func (p *Pool) Stat() database.PoolStat {
	s := p.db.Stats()
	return database.PoolStat{
		MaxConns:   int32(s.MaxOpenConnections),
		TotalConns: int32(s.OpenConnections),
		IdleConns:  int32(s.Idle),
		InUseConns: int32(s.InUse),
	}
}

// Close shuts down the pool. database/sql closes idle connections
// immediately and in-use ones as their callers release them, so there is
// nothing to wait on.
func (p *Pool) Close(_ context.Context) error {
	return mapError(p.db.Close())
}

// --- sqlConn wraps *sql.Conn ---

type sqlConn struct{ conn *sql.Conn }

func (c *sqlConn) Ping(ctx context.Context) error { return mapError(c.conn.PingContext(ctx)) }
func (c *sqlConn) Release()                       { _ = c.conn.Close() }

// --- mysqlRows wraps *sql.Rows ---

type mysqlRows struct{ rows *sql.Rows }

func (r *mysqlRows) Next() bool                 { return r.rows.Next() }
func (r *mysqlRows) Scan(dest ...any) error     { return mapError(r.rows.Scan(dest...)) }
func (r *mysqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *mysqlRows) Close()                     { r.rows.Close() }
func (r *mysqlRows) Err() error                 { return mapError(r.rows.Err()) }

// --- mysqlRow wraps *sql.Row ---

type mysqlRow struct{ row *sql.Row }

func (r *mysqlRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}
	return mapError(err)
}
