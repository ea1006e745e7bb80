package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koustreak/DatServe/internal/database"
	"github.com/koustreak/DatServe/internal/errs"
)

// Pool implements database.Pool for PostgreSQL using pgxpool.
type Pool struct {
	pool *pgxpool.Pool
	cfg  database.Config
}

// New builds a connection pool for cfg. Connections are dialed lazily;
// callers verify reachability with a probe before routing traffic here.
func New(ctx context.Context, cfg database.Config) (*Pool, error) {
	pool, err := buildPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Pool{pool: pool, cfg: cfg}, nil
}

// Acquire checks a single connection out of the pool.
func (p *Pool) Acquire(ctx context.Context) (database.Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return &pgConn{conn: conn}, nil
}

// Ping verifies the database is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	return mapError(p.pool.Ping(ctx))
}

// Query executes a query returning multiple rows.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return &pgRows{rows: rows}, nil
}

// QueryRow executes a query returning a single row. Errors surface from
// the returned row's Scan.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) (database.Row, error) {
	return &pgRow{row: p.pool.QueryRow(ctx, sql, args...)}, nil
}

// Stat reports a point-in-time snapshot of pool usage.
func (p *Pool) Stat() database.PoolStat {
	s := p.pool.Stat()
	return database.PoolStat{
		MaxConns:   s.MaxConns(),
		TotalConns: s.TotalConns(),
		IdleConns:  s.IdleConns(),
		InUseConns: s.AcquiredConns(),
	}
}

// Close drains the pool. pgxpool waits for checked-out connections to be
// released, so the wait is bounded by ctx; on timeout the drain keeps
// running in the background and the timeout is reported to the caller.
func (p *Pool) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.pool.Close()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errs.Wrap(errs.ErrKindTimeout, "postgres pool close timed out waiting for in-flight connections", ctx.Err())
	}
}

// --- pgConn wraps *pgxpool.Conn ---

type pgConn struct{ conn *pgxpool.Conn }

func (c *pgConn) Ping(ctx context.Context) error { return mapError(c.conn.Ping(ctx)) }
func (c *pgConn) Release()                       { c.conn.Release() }

// --- pgRows wraps pgx.Rows ---

type pgRows struct{ rows pgx.Rows }

func (r *pgRows) Next() bool             { return r.rows.Next() }
func (r *pgRows) Scan(dest ...any) error { return mapError(r.rows.Scan(dest...)) }
func (r *pgRows) Close()                 { r.rows.Close() }
func (r *pgRows) Err() error             { return mapError(r.rows.Err()) }

func (r *pgRows) Columns() ([]string, error) {
	fields := r.rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return cols, nil
}

// --- pgRow wraps pgx.Row ---

type pgRow struct{ row pgx.Row }

func (r *pgRow) Scan(dest ...any) error { return mapError(r.row.Scan(dest...)) }
