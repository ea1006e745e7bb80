package database

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/koustreak/DatServe/internal/errs"
	"github.com/koustreak/DatServe/internal/logger"
)

const (
	defaultProbeTimeout = 5 * time.Second
	defaultDrainTimeout = 30 * time.Second
)

// poolState is one immutable generation of the manager's state. Swaps
// replace the whole value, so a reader holding a snapshot never sees a
// pool from one generation paired with the config of another.
type poolState struct {
	pool    Pool
	cfg     Config
	healthy bool
	gate    *semaphore.Weighted
}

// Manager owns the single live Pool shared by every request and replaces
// it safely when connection settings change at runtime. Replacement is
// validate-then-swap: a candidate pool is opened and probed off to the
// side, and the active pool is only released once the candidate has
// proven it can serve traffic. A failed candidate leaves the active pool
// untouched.
type Manager struct {
	open OpenFunc
	log  *logger.Logger

	probeTimeout time.Duration
	drainTimeout time.Duration

	mu    sync.RWMutex // guards state pointer only, never held during I/O
	state *poolState   // nil until Init succeeds

	reloading atomic.Bool
}

// ManagerOptions tunes a Manager. Zero fields take the defaults.
type ManagerOptions struct {
	// Logger receives swap and drain events. Defaults to the global logger.
	Logger *logger.Logger
	// ProbeTimeout bounds validation of a candidate pool. Default 5s.
	ProbeTimeout time.Duration
	// DrainTimeout bounds the background close of a replaced pool.
	// Default 30s.
	DrainTimeout time.Duration
}

// NewManager returns a Manager that builds pools with open. The manager
// serves no requests until Init has installed a first pool.
func NewManager(open OpenFunc, opts ManagerOptions) *Manager {
	log := opts.Logger
	if log == nil {
		log = logger.Global()
	}
	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	drainTimeout := opts.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = defaultDrainTimeout
	}
	return &Manager{
		open:         open,
		log:          log,
		probeTimeout: probeTimeout,
		drainTimeout: drainTimeout,
	}
}

// Init builds and installs the first pool from cfg. Startup has no
// previous pool to fall back to, so any failure is returned to the
// caller, which should treat it as fatal. Init fails if a pool is
// already installed; use Reload for runtime changes.
func (m *Manager) Init(ctx context.Context, cfg Config) error {
	if !m.reloading.CompareAndSwap(false, true) {
		return errs.New(errs.ErrKindBusy, "reconfiguration already in progress")
	}
	defer m.reloading.Store(false)

	if m.snapshot() != nil {
		return errs.New(errs.ErrKindInvalidInput, "manager already initialized; use Reload")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	candidate, err := m.buildCandidate(ctx, cfg)
	if err != nil {
		return err
	}
	m.swap(candidate, cfg)
	m.log.With().
		Str("driver", string(cfg.Driver)).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Logger().
		Info("database pool initialized")
	return nil
}

// Reload applies override on top of the active config and replaces the
// pool if the merged settings pass validation and a live probe. The old
// pool keeps serving in-flight requests throughout; it is drained in the
// background only after the new pool is installed. On any failure the
// active pool, config, and health flag are left exactly as they were.
//
// Only one reconfiguration runs at a time; concurrent calls are rejected
// with a busy error rather than queued.
func (m *Manager) Reload(ctx context.Context, override Config) error {
	if !m.reloading.CompareAndSwap(false, true) {
		return errs.New(errs.ErrKindBusy, "reconfiguration already in progress")
	}
	defer m.reloading.Store(false)

	base := DefaultConfig()
	cur := m.snapshot()
	if cur != nil {
		base = cur.cfg
	}
	merged := base.Merge(override)
	if err := merged.Validate(); err != nil {
		return err
	}

	candidate, err := m.buildCandidate(ctx, merged)
	if err != nil {
		return err
	}

	old := m.swap(candidate, merged)
	m.log.With().
		Str("driver", string(merged.Driver)).
		Str("host", merged.Host).
		Int("port", merged.Port).
		Str("database", merged.Database).
		Logger().
		Info("database pool replaced")

	if old != nil && old.pool != nil {
		go m.drain(old.pool)
	}
	return nil
}

// buildCandidate opens a pool for cfg and validates it with a probe. The
// candidate stays invisible to readers the whole time, so a slow or hung
// connection attempt never blocks traffic on the active pool. On failure
// the candidate is closed before the error is returned.
func (m *Manager) buildCandidate(ctx context.Context, cfg Config) (Pool, error) {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConfig().ConnectTimeout
	}
	openCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	candidate, err := m.open(openCtx, cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "candidate pool construction failed", err)
	}

	probeCtx, cancelProbe := context.WithTimeout(ctx, m.probeTimeout)
	defer cancelProbe()
	if err := Probe(probeCtx, candidate); err != nil {
		m.discard(candidate)
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "candidate pool failed validation probe", err)
	}
	return candidate, nil
}

// discard closes a candidate that never went live.
func (m *Manager) discard(candidate Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), m.probeTimeout)
	defer cancel()
	if err := candidate.Close(ctx); err != nil {
		m.log.With().Err(err).Logger().Warn("failed to close rejected candidate pool")
	}
}

// swap installs a fresh state generation and returns the previous one.
func (m *Manager) swap(pool Pool, cfg Config) *poolState {
	next := &poolState{
		pool:    pool,
		cfg:     cfg,
		healthy: true,
		gate:    admissionGate(cfg),
	}
	m.mu.Lock()
	prev := m.state
	m.state = next
	m.mu.Unlock()
	return prev
}

// admissionGate sizes the concurrency gate for a config. A request slot
// exists for every pooled connection plus every queue position; beyond
// that, WithPool rejects instead of piling up waiters.
func admissionGate(cfg Config) *semaphore.Weighted {
	if cfg.QueueLimit <= 0 {
		return nil
	}
	conns := int64(cfg.MaxConns)
	if conns <= 0 {
		conns = int64(DefaultConfig().MaxConns)
	}
	return semaphore.NewWeighted(conns + int64(cfg.QueueLimit))
}

// drain closes a replaced pool in the background. Requests that grabbed
// the pool before the swap keep their connections until they finish;
// Close waits for them up to drainTimeout. A drain failure is logged and
// never undoes the swap.
func (m *Manager) drain(old Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), m.drainTimeout)
	defer cancel()
	if err := old.Close(ctx); err != nil {
		m.log.With().Err(err).Logger().Warn("replaced pool did not drain cleanly")
		return
	}
	m.log.Debug("replaced pool drained")
}

func (m *Manager) snapshot() *poolState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Pool returns the active handle when the manager considers it healthy.
// A caller that already holds a handle may keep using it across a swap;
// the handle stays valid until its drain completes.
func (m *Manager) Pool() (Pool, error) {
	st := m.snapshot()
	if st == nil || !st.healthy {
		return nil, errs.New(errs.ErrKindUnavailable, "database pool unavailable")
	}
	return st.pool, nil
}

// WithPool runs fn against the active pool, failing fast with an
// unavailable error when no healthy pool exists. When the active config
// carries a queue limit, calls beyond the pool size plus the queue are
// rejected immediately instead of waiting.
func (m *Manager) WithPool(ctx context.Context, fn func(context.Context, Pool) error) error {
	st := m.snapshot()
	if st == nil || !st.healthy {
		return errs.New(errs.ErrKindUnavailable, "database pool unavailable")
	}
	if st.gate != nil {
		if !st.gate.TryAcquire(1) {
			return errs.New(errs.ErrKindUnavailable, "connection queue limit reached")
		}
		defer st.gate.Release(1)
	}
	return fn(ctx, st.pool)
}

// Probe checks the active pool end to end and records the result in the
// health flag, recovering a pool previously marked unhealthy once the
// database is reachable again. The probe error is returned for status
// reporting.
func (m *Manager) Probe(ctx context.Context) error {
	st := m.snapshot()
	if st == nil {
		return errs.New(errs.ErrKindUnavailable, "database pool unavailable")
	}
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()
	err := Probe(probeCtx, st.pool)
	m.recordProbe(st, err == nil)
	return err
}

// recordProbe flips the health flag for the probed generation. If a swap
// happened while the probe ran, the result belongs to a retired pool and
// is dropped.
func (m *Manager) recordProbe(st *poolState, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil || m.state.pool != st.pool {
		return
	}
	if m.state.healthy == ok {
		return
	}
	next := *m.state
	next.healthy = ok
	m.state = &next
}

// MarkUnhealthy flags the active pool as failed without replacing it.
// Requests are refused until a probe succeeds or a reconfiguration
// installs a fresh pool.
func (m *Manager) MarkUnhealthy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil || !m.state.healthy {
		return
	}
	next := *m.state
	next.healthy = false
	m.state = &next
}

// Healthy reports the result of the most recent probe of the active pool.
func (m *Manager) Healthy() bool {
	st := m.snapshot()
	return st != nil && st.healthy
}

// Config returns the redacted active connection settings. ok is false
// before the first successful initialization.
func (m *Manager) Config() (Config, bool) {
	st := m.snapshot()
	if st == nil {
		return Config{}, false
	}
	return st.cfg.Redacted(), true
}

// Stat reports connection usage of the active pool.
func (m *Manager) Stat() (PoolStat, bool) {
	st := m.snapshot()
	if st == nil {
		return PoolStat{}, false
	}
	return st.pool.Stat(), true
}

// Watch re-probes the active pool every interval until ctx is cancelled,
// keeping the health flag current so requests fail fast while the
// database is down and recover without a restart once it is back.
func (m *Manager) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Probe(ctx); err != nil {
				m.log.With().Err(err).Logger().Warn("database health probe failed")
			}
		}
	}
}

// Close retires the active pool and leaves the manager uninitialized.
// Used at shutdown; the close is bounded by ctx.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	st := m.state
	m.state = nil
	m.mu.Unlock()
	if st == nil || st.pool == nil {
		return nil
	}
	return st.pool.Close(ctx)
}
