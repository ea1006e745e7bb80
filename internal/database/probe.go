package database

import "context"

// Probe checks that pool can currently service a query by acquiring a
// connection, pinging it, and releasing it. The acquired connection is
// released on every path. Probe does not retry; callers decide how to
// react to a failure.
func Probe(ctx context.Context, pool Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Ping(ctx)
}
