// manager.go
package mediagate

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Manager is the single front door for outbound calls. Reads go through
// Fetch (cache-aside, deduplicated, scheduled); mutations go through Mutate
// (scheduled, then invalidated). It owns the cache, scheduler, pruner, and
// snapshot store lifecycle: construct with New, hydrate with Start, release
// with Close.
type Manager struct {
	mu      sync.Mutex
	config  *Config
	flight  singleflight.Group
	started bool
	closed  bool
}

// New creates a Manager. A cache and a scheduler are mandatory; snapshot
// store, pruner, and logger are optional.
func New(opts ...Option) (*Manager, error) {
	cfg := &Config{
		logger: NewDefaultLogger(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.cache == nil || cfg.scheduler == nil {
		return nil, ErrInvalidConfig
	}

	return &Manager{config: cfg}, nil
}

// Start hydrates the cache from the snapshot store (when one is configured)
// and starts the background pruner. A missing or corrupt snapshot is not an
// error: the Manager logs it and proceeds with an empty cache.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started || m.closed {
		return nil
	}
	m.started = true

	if m.config.store != nil {
		snap, err := m.config.store.Load(ctx)
		switch {
		case errors.Is(err, ErrNotFound):
			m.config.logger.Debug("no cache snapshot to hydrate")
		case err != nil:
			m.config.logger.Warn("cache snapshot unreadable, starting empty", "error", err)
		default:
			m.config.cache.Import(snap)
			m.config.logger.Debug("cache hydrated from snapshot", "entries", m.config.cache.Len())
		}
	}

	if m.config.pruner != nil {
		m.config.pruner.Start()
	}

	return nil
}

// Fetch resolves one read query. On a cache hit the cached value is returned
// with no network access. On a miss, concurrent identical requests collapse
// into a single scheduled operation; the result is cached under the derived
// key and returned. A NoCache config bypasses both the cache read and the
// cache write. Failed operations are never cached.
func (m *Manager) Fetch(ctx context.Context, cfg QueryConfig, op Operation) (any, error) {
	category, err := cfg.Category()
	if err != nil {
		return nil, err
	}

	if cfg.NoCache {
		return m.config.scheduler.Do(ctx, op)
	}

	key := BuildKey(cfg)
	if value, ok := m.config.cache.Get(category, key); ok {
		return value, nil
	}

	value, err, _ := m.flight.Do(category.String()+"\x00"+key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have already
		// stored the result while this one was waiting.
		if value, ok := m.config.cache.Get(category, key); ok {
			return value, nil
		}

		result, err := m.config.scheduler.Do(ctx, op)
		if err != nil {
			return nil, err
		}

		m.config.cache.Set(category, key, result)
		return result, nil
	})
	return value, err
}

// Mutate performs one mutating call through the scheduler. On success, and
// only on success, the invalidation event is applied before the result is
// returned, so the caller re-renders against a cache that no longer holds
// the stale entries.
func (m *Manager) Mutate(ctx context.Context, op Operation, inv Invalidation) (any, error) {
	result, err := m.config.scheduler.Do(ctx, op)
	if err != nil {
		return nil, err
	}

	m.Invalidate(inv)
	return result, nil
}

// Close stops the pruner, shuts the scheduler down, flushes the cache to the
// snapshot store, and clears the cache. It is idempotent. The snapshot store
// itself stays open: the host created it and remains responsible for closing
// it.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if m.config.pruner != nil {
		m.config.pruner.Stop()
	}

	if err := m.config.scheduler.Close(); err != nil {
		m.config.logger.Warn("scheduler shutdown failed", "error", err)
	}

	if m.config.store != nil {
		if err := m.config.store.Save(ctx, m.config.cache.Export()); err != nil {
			m.config.logger.Error("failed to persist cache snapshot", "error", err)
		}
	}

	return m.config.cache.Close()
}
