package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/DatServe/internal/database"
	"github.com/koustreak/DatServe/internal/errs"
)

const (
	defaultRowLimit = 100
	maxRowLimit     = 1000
)

// handleListTables returns the table names visible to the active pool.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	var tables []string
	err := s.manager.WithPool(ctx, func(ctx context.Context, pool database.Pool) error {
		var err error
		tables, err = pool.ListTables(ctx)
		return err
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if tables == nil {
		tables = []string{}
	}
	s.respondData(w, http.StatusOK, tables)
}

// handleInspectTable returns column details for one table.
func (s *Server) handleInspectTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	var info *database.TableInfo
	err := s.manager.WithPool(ctx, func(ctx context.Context, pool database.Pool) error {
		var err error
		info, err = pool.InspectTable(ctx, table)
		return err
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondData(w, http.StatusOK, info)
}

// tableRowsPayload carries one page of rows.
type tableRowsPayload struct {
	Rows  []map[string]any `json:"rows"`
	Count int              `json:"count"`
}

// handleTableRows serves a paginated read-only SELECT over one table.
// The table name is checked against the catalog first so an unknown
// table is a clean 404 rather than a driver error.
func (s *Server) handleTableRows(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	limit := queryInt(r, "limit", defaultRowLimit)
	if limit > maxRowLimit {
		limit = maxRowLimit
	}
	offset := queryInt(r, "offset", 0)
	orderBy := r.URL.Query().Get("order_by")
	desc := r.URL.Query().Get("desc") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	var rows []map[string]any
	err := s.manager.WithPool(ctx, func(ctx context.Context, pool database.Pool) error {
		exists, err := pool.TableExists(ctx, table)
		if err != nil {
			return err
		}
		if !exists {
			return errs.Newf(errs.ErrKindNotFound, "table %q not found", table)
		}

		b := database.Select(table, s.dialect()).Limit(limit).Offset(offset)
		if orderBy != "" {
			dir := database.Asc
			if desc {
				dir = database.Desc
			}
			b = b.OrderBy(orderBy, dir)
		}
		sql, args, err := b.Build()
		if err != nil {
			return err
		}

		res, err := pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		rows, err = database.ScanRows(res)
		return err
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondData(w, http.StatusOK, tableRowsPayload{Rows: rows, Count: len(rows)})
}

// dialect reports the placeholder style of the active driver.
func (s *Server) dialect() database.Dialect {
	if cfg, ok := s.manager.Config(); ok && cfg.Driver == database.DriverMySQL {
		return database.DialectMySQL
	}
	return database.DialectPostgres
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
