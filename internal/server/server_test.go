package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/DatServe/internal/database"
	"github.com/koustreak/DatServe/internal/errs"
	"github.com/koustreak/DatServe/internal/filestore"
	"github.com/koustreak/DatServe/internal/logger"
)

// --- fakes ---

type fakeManager struct {
	healthy   bool
	probeErr  error
	reloadErr error
	reloads   []database.Config
	cfg       database.Config
	hasCfg    bool
	stat      database.PoolStat
	hasStat   bool
	pool      database.Pool
}

func (f *fakeManager) WithPool(ctx context.Context, fn func(context.Context, database.Pool) error) error {
	if !f.healthy {
		return errs.New(errs.ErrKindUnavailable, "database pool unavailable")
	}
	return fn(ctx, f.pool)
}

func (f *fakeManager) Reload(ctx context.Context, override database.Config) error {
	f.reloads = append(f.reloads, override)
	return f.reloadErr
}

func (f *fakeManager) Probe(ctx context.Context) error { return f.probeErr }
func (f *fakeManager) Healthy() bool                   { return f.healthy }
func (f *fakeManager) Config() (database.Config, bool) { return f.cfg.Redacted(), f.hasCfg }
func (f *fakeManager) Stat() (database.PoolStat, bool) { return f.stat, f.hasStat }

type stubRows struct {
	cols []string
	data [][]any
	idx  int
}

func (r *stubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	for i := range dest {
		*dest[i].(*any) = row[i]
	}
	return nil
}

func (r *stubRows) Columns() ([]string, error) { return r.cols, nil }
func (r *stubRows) Close()                     {}
func (r *stubRows) Err() error                 { return nil }

type fakePool struct {
	tables  []string
	exists  bool
	info    *database.TableInfo
	infoErr error
	rows    *stubRows
	gotSQL  string
	gotArgs []any
}

func (p *fakePool) Acquire(ctx context.Context) (database.Conn, error) {
	return nil, errors.New("not implemented")
}
func (p *fakePool) Ping(ctx context.Context) error { return nil }

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	p.gotSQL, p.gotArgs = sql, args
	return p.rows, nil
}

func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...any) (database.Row, error) {
	return nil, errors.New("not implemented")
}

func (p *fakePool) ListTables(ctx context.Context) ([]string, error) { return p.tables, nil }
func (p *fakePool) TableExists(ctx context.Context, table string) (bool, error) {
	return p.exists, nil
}
func (p *fakePool) InspectTable(ctx context.Context, table string) (*database.TableInfo, error) {
	return p.info, p.infoErr
}
func (p *fakePool) Stat() database.PoolStat         { return database.PoolStat{} }
func (p *fakePool) Close(ctx context.Context) error { return nil }

type fakeStore struct {
	buckets   []filestore.BucketInfo
	objects   []filestore.ObjectInfo
	pingErr   error
	listErr   error
	gotBucket string
	gotOpts   filestore.ListOptions
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakeStore) Close() error                   { return nil }

func (f *fakeStore) ListBuckets(ctx context.Context) ([]filestore.BucketInfo, error) {
	return f.buckets, f.listErr
}

func (f *fakeStore) ListObjects(ctx context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	f.gotBucket, f.gotOpts = bucket, opts
	return f.objects, f.listErr
}

func (f *fakeStore) StatObject(ctx context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	return nil, errs.New(errs.ErrKindNotFound, "no such object")
}

// --- helpers ---

func newTestServer(m PoolManager, store filestore.Store) *Server {
	return New(Options{
		Manager: m,
		Store:   store,
		Logger:  logger.New(&logger.Config{Level: "error", Output: io.Discard}),
	})
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var env response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// --- tests ---

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		m := &fakeManager{healthy: true, hasStat: true, stat: database.PoolStat{MaxConns: 25}}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var payload healthPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "healthy", payload.Status)
		assert.Equal(t, "connected", payload.Database)
		assert.Empty(t, payload.Storage)
		require.NotNil(t, payload.Pool)
		assert.Equal(t, int32(25), payload.Pool.MaxConns)
	})

	t.Run("database down", func(t *testing.T) {
		m := &fakeManager{probeErr: errors.New("connection refused")}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var payload healthPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "unhealthy", payload.Status)
		assert.Equal(t, "disconnected", payload.Database)
	})

	t.Run("storage down is advisory", func(t *testing.T) {
		m := &fakeManager{healthy: true}
		st := &fakeStore{pingErr: errors.New("no route to host")}
		rec := doRequest(t, newTestServer(m, st).Handler(), http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var payload healthPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "healthy", payload.Status)
		assert.Equal(t, "disconnected", payload.Storage)
	})
}

func TestGetConfig(t *testing.T) {
	t.Run("redacted view", func(t *testing.T) {
		m := &fakeManager{
			hasCfg: true,
			cfg: database.Config{
				Driver:   database.DriverPostgres,
				Host:     "db1.internal",
				Port:     5432,
				User:     "app",
				Password: "secret",
				Database: "appdb",
				MaxConns: 25,
			},
		}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodGet, "/database/config", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		assert.NotContains(t, rec.Body.String(), "secret")
		assert.NotContains(t, rec.Body.String(), "password")

		data, _ := json.Marshal(env.Data)
		var cfg connectionConfig
		require.NoError(t, json.Unmarshal(data, &cfg))
		assert.Equal(t, "db1.internal", cfg.Host)
		assert.Equal(t, "appdb", cfg.DatabaseName)
		assert.Equal(t, int32(25), cfg.PoolSizeLimit)
	})

	t.Run("before initialization", func(t *testing.T) {
		rec := doRequest(t, newTestServer(&fakeManager{}, nil).Handler(), http.MethodGet, "/database/config", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
	})
}

func TestPutConfig(t *testing.T) {
	const body = `{"driver":"mysql","host":"db2.internal","port":3306,"username":"app","databaseName":"appdb","queueLimit":25}`

	t.Run("success", func(t *testing.T) {
		m := &fakeManager{healthy: true}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodPut, "/database/config", body)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		assert.NotEmpty(t, env.Message)

		require.Len(t, m.reloads, 1)
		got := m.reloads[0]
		assert.Equal(t, database.DriverMySQL, got.Driver)
		assert.Equal(t, "db2.internal", got.Host)
		assert.Equal(t, int32(25), got.QueueLimit)
		assert.Empty(t, got.Password, "omitted password stays empty so the merge keeps the active one")
	})

	t.Run("missing fields rejected before reload", func(t *testing.T) {
		m := &fakeManager{healthy: true}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodPut, "/database/config",
			`{"host":"db2.internal"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
		assert.Contains(t, env.Message, "port")
		assert.Contains(t, env.Message, "username")
		assert.Contains(t, env.Message, "databaseName")
		assert.Empty(t, m.reloads, "validation failures must not reach the manager")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(t, newTestServer(&fakeManager{}, nil).Handler(), http.MethodPut, "/database/config", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reload in progress", func(t *testing.T) {
		m := &fakeManager{reloadErr: errs.New(errs.ErrKindBusy, "reconfiguration already in progress")}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodPut, "/database/config", body)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
	})

	t.Run("candidate validation failure", func(t *testing.T) {
		m := &fakeManager{reloadErr: errs.New(errs.ErrKindConnectionFailed, "candidate pool failed validation probe: password authentication failed")}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodPut, "/database/config", body)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
		assert.Contains(t, env.Message, "password authentication failed")
	})
}

func TestListTables(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m := &fakeManager{healthy: true, pool: &fakePool{tables: []string{"orders", "users"}}}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodGet, "/tables/", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		assert.Equal(t, []any{"orders", "users"}, env.Data)
	})

	t.Run("pool unavailable", func(t *testing.T) {
		rec := doRequest(t, newTestServer(&fakeManager{}, nil).Handler(), http.MethodGet, "/tables/", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
	})
}

func TestInspectTable(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m := &fakeManager{healthy: true, pool: &fakePool{
			info: &database.TableInfo{
				Name:    "users",
				Columns: []database.ColumnInfo{{Name: "id", DataType: "bigint", IsPrimaryKey: true}},
			},
		}}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodGet, "/tables/users", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"is_primary_key":true`)
	})

	t.Run("unknown table", func(t *testing.T) {
		m := &fakeManager{healthy: true, pool: &fakePool{
			infoErr: errs.Newf(errs.ErrKindNotFound, "table %q not found", "ghosts"),
		}}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodGet, "/tables/ghosts", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTableRows(t *testing.T) {
	t.Run("paginated select", func(t *testing.T) {
		pool := &fakePool{
			exists: true,
			rows: &stubRows{
				cols: []string{"id", "name"},
				data: [][]any{{int64(1), "ada"}, {int64(2), "grace"}},
			},
		}
		m := &fakeManager{
			healthy: true,
			pool:    pool,
			hasCfg:  true,
			cfg:     database.Config{Driver: database.DriverPostgres},
		}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodGet,
			"/tables/users/rows?limit=2&order_by=name&desc=true", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)

		assert.Equal(t,
			`SELECT * FROM "users" ORDER BY "name" DESC LIMIT $1 OFFSET $2`,
			pool.gotSQL)
		assert.Equal(t, []any{2, 0}, pool.gotArgs)

		data, _ := json.Marshal(env.Data)
		var payload tableRowsPayload
		require.NoError(t, json.Unmarshal(data, &payload))
		assert.Equal(t, 2, payload.Count)
	})

	t.Run("mysql dialect", func(t *testing.T) {
		pool := &fakePool{exists: true, rows: &stubRows{cols: []string{"id"}}}
		m := &fakeManager{
			healthy: true,
			pool:    pool,
			hasCfg:  true,
			cfg:     database.Config{Driver: database.DriverMySQL},
		}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodGet, "/tables/users/rows", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "SELECT * FROM `users` LIMIT ? OFFSET ?", pool.gotSQL)
	})

	t.Run("unknown table", func(t *testing.T) {
		m := &fakeManager{healthy: true, pool: &fakePool{exists: false}}
		rec := doRequest(t, newTestServer(m, nil).Handler(), http.MethodGet, "/tables/ghosts/rows", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStorageRoutes(t *testing.T) {
	t.Run("buckets", func(t *testing.T) {
		st := &fakeStore{buckets: []filestore.BucketInfo{{Name: "exports"}}}
		rec := doRequest(t, newTestServer(&fakeManager{healthy: true}, st).Handler(),
			http.MethodGet, "/storage/buckets", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"exports"`)
	})

	t.Run("objects pass paging options through", func(t *testing.T) {
		st := &fakeStore{objects: []filestore.ObjectInfo{{Key: "a/b.csv", Size: 42}}}
		rec := doRequest(t, newTestServer(&fakeManager{healthy: true}, st).Handler(),
			http.MethodGet, "/storage/buckets/exports/objects?prefix=a/&recursive=true&limit=10", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "exports", st.gotBucket)
		assert.Equal(t, "a/", st.gotOpts.Prefix)
		assert.True(t, st.gotOpts.Recursive)
		assert.Equal(t, 10, st.gotOpts.Limit)
	})

	t.Run("disabled storage mounts no routes", func(t *testing.T) {
		rec := doRequest(t, newTestServer(&fakeManager{healthy: true}, nil).Handler(),
			http.MethodGet, "/storage/buckets", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
