// Package drivers selects a concrete database driver from config. It is
// the only package that imports both driver implementations, keeping the
// manager free of import cycles.
package drivers

import (
	"context"

	"github.com/koustreak/DatServe/internal/database"
	"github.com/koustreak/DatServe/internal/database/mysql"
	"github.com/koustreak/DatServe/internal/database/postgres"
	"github.com/koustreak/DatServe/internal/errs"
)

// Open builds a connection pool for cfg's driver. It satisfies
// database.OpenFunc and is what production wiring hands to the manager.
func Open(ctx context.Context, cfg database.Config) (database.Pool, error) {
	switch cfg.Driver {
	case database.DriverPostgres:
		return postgres.New(ctx, cfg)
	case database.DriverMySQL:
		return mysql.New(ctx, cfg)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown driver: %q", cfg.Driver)
	}
}
