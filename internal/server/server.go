// Package server exposes DatServe's HTTP API: health, live database
// reconfiguration, read-only data access, and storage inventory.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/DatServe/internal/database"
	"github.com/koustreak/DatServe/internal/filestore"
	"github.com/koustreak/DatServe/internal/logger"
)

// PoolManager is the slice of the database manager the HTTP layer needs.
// *database.Manager satisfies it; tests substitute their own.
type PoolManager interface {
	WithPool(ctx context.Context, fn func(context.Context, database.Pool) error) error
	Reload(ctx context.Context, override database.Config) error
	Probe(ctx context.Context) error
	Healthy() bool
	Config() (database.Config, bool)
	Stat() (database.PoolStat, bool)
}

// Options configures a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// QueryTimeout bounds each data query issued by the table routes.
	QueryTimeout time.Duration

	Manager PoolManager
	Store   filestore.Store // nil disables the storage routes
	Logger  *logger.Logger
}

// Server is the DatServe HTTP front end.
type Server struct {
	manager      PoolManager
	store        filestore.Store
	log          *logger.Logger
	queryTimeout time.Duration
	http         *http.Server
}

// New assembles the router and returns a Server ready to Start.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.Global()
	}
	queryTimeout := opts.QueryTimeout
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}

	s := &Server{
		manager:      opts.Manager,
		store:        opts.Store,
		log:          log,
		queryTimeout: queryTimeout,
	}
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.routes(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// routes assembles the chi router. Split out so tests can drive the full
// handler stack without a listener.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/database", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handlePutConfig)
	})

	r.Route("/tables", func(r chi.Router) {
		r.Get("/", s.handleListTables)
		r.Get("/{table}", s.handleInspectTable)
		r.Get("/{table}/rows", s.handleTableRows)
	})

	if s.store != nil {
		r.Route("/storage", func(r chi.Router) {
			r.Get("/buckets", s.handleListBuckets)
			r.Get("/buckets/{bucket}/objects", s.handleListObjects)
		})
	}

	return r
}

// Handler exposes the assembled routes, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.With().Str("addr", s.http.Addr).Logger().Info("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting new requests and waits for in-flight ones
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
