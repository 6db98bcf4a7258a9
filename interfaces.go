// Package mediagate defines the interfaces for caching, scheduling, snapshot
// persistence, and logging used by the gateway.
package mediagate

import (
	"context"
)

// Cache defines the methods required of the tiered cache backend.
//
// Implementations must be safe for concurrent use. An out-of-range Category
// is a reported-but-non-fatal error: the operation degrades to a miss or a
// no-op with a warning, it never panics and never reaches the caller as an
// error.
type Cache interface {
	// Get returns the cached value for (category, key), or false on a miss.
	// An entry older than the category's TTL is deleted at the moment this is
	// discovered and reported as a miss.
	Get(category Category, key string) (any, bool)
	// Set stores value under (category, key), stamping it with the current
	// time. It overwrites any existing entry unconditionally.
	Set(category Category, key string, value any)
	// Delete removes a single entry. Removing an absent key is a no-op.
	Delete(category Category, key string)
	// Keys returns the keys currently held in a category, expired or not.
	Keys(category Category) []string
	// ClearCategory drops every entry in one category.
	ClearCategory(category Category)
	// Prune evicts every expired entry and reports eviction counts per
	// category.
	Prune() map[Category]int
	// Export captures the cache contents in portable form for persistence.
	Export() *Snapshot
	// Import hydrates the cache from a snapshot, dropping entries that are
	// already past their category TTL. It never fails: malformed pieces are
	// skipped with a warning.
	Import(snap *Snapshot)
	// Len reports the total number of entries across all categories.
	Len() int
	Close() error
}

// Scheduler defines the single-flight outbound queue. All network calls go
// through Do; direct calls bypassing the scheduler violate the rate-limit
// contract.
type Scheduler interface {
	// Do enqueues op and blocks until it settles. Operations run strictly in
	// submission order, one at a time, with a minimum delay between tasks.
	// If ctx expires while waiting, Do returns ctx.Err() but the operation
	// still runs; there is no cancellation once submitted.
	Do(ctx context.Context, op Operation) (any, error)
	// Close rejects further submissions, drains queued tasks, and stops the
	// worker.
	Close() error
}

// SnapshotStore persists cache snapshots across process restarts.
type SnapshotStore interface {
	// Load returns the most recently saved snapshot. It returns ErrNotFound
	// when nothing has been saved and ErrCorruptSnapshot (wrapped) when the
	// persisted state cannot be decoded.
	Load(ctx context.Context) (*Snapshot, error)
	// Save replaces the persisted snapshot.
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}

// Pruner periodically sweeps the cache independent of read-time expiry,
// bounding memory growth from entries that are written but never re-read.
type Pruner interface {
	Start()
	// Stop halts the sweep loop. It is idempotent.
	Stop()
}

// Logger defines the methods required for logging within the gateway.
// The args should be alternating key-value pairs, similar to slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// SetLevel changes the minimum level emitted, at runtime.
	SetLevel(level LogLevel)
}
