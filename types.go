// Package mediagate defines the core types used by the media gateway.
package mediagate

import (
	"context"
	"fmt"
	"time"
)

// Category partitions the cache by data kind. Each category carries its own
// time-to-live; anything outside the closed set below is rejected at the
// cache boundary.
type Category int

const (
	// CategoryUserData holds per-user media lists (watching, completed, ...).
	CategoryUserData Category = iota
	// CategoryMediaData holds single-item lookups for one (user, media) pair.
	CategoryMediaData
	// CategorySearchResults holds remote search responses. Search results are
	// not expected to reflect the user's personal list state, so they are
	// never invalidated by mutations and rely on their short TTL instead.
	CategorySearchResults

	categoryCount // sentinel, keep last
)

var categoryNames = [categoryCount]string{
	CategoryUserData:      "user_data",
	CategoryMediaData:     "media_data",
	CategorySearchResults: "search_results",
}

// String returns the stable name used in snapshots and logs.
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	return c >= 0 && c < categoryCount
}

// ParseCategory maps a snapshot category name back to its Category.
func ParseCategory(name string) (Category, error) {
	for c, n := range categoryNames {
		if n == name {
			return Category(c), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// Categories returns every defined category, in declaration order.
func Categories() []Category {
	out := make([]Category, 0, categoryCount)
	for c := Category(0); c < categoryCount; c++ {
		out = append(out, c)
	}
	return out
}

// DefaultTTLs returns the per-category freshness windows: list data changes
// rarely, single-item data more often, search results are near-live.
func DefaultTTLs() map[Category]time.Duration {
	return map[Category]time.Duration{
		CategoryUserData:      30 * time.Minute,
		CategoryMediaData:     10 * time.Minute,
		CategorySearchResults: 2 * time.Minute,
	}
}

// Query type values accepted in QueryConfig.Type.
const (
	QueryTypeList   = "list"
	QueryTypeSingle = "single"
	QueryTypeSearch = "search"
)

// QueryConfig describes one remote query as the caller configured it. The
// gateway derives the cache category and cache key from it; the caller still
// builds the actual GraphQL/REST request body.
type QueryConfig struct {
	// Type selects the kind of query: "list", "single", or "search".
	Type string
	// Username scopes the query to one remote account.
	Username string
	// MediaID identifies a single media entry, for "single" queries.
	MediaID int
	// MediaType is the remote media kind, e.g. "ANIME" or "MANGA".
	MediaType string
	// ListType selects one of the user's lists, e.g. "CURRENT" or "COMPLETED".
	ListType string
	// Layout is the render layout requested by the note, part of the key
	// because different layouts fetch different field sets.
	Layout string
	// Search is the free-text search term, for "search" queries.
	Search string
	// Page and PerPage control remote pagination.
	Page    int
	PerPage int
	// NoCache bypasses both cache read and cache write for this call. It is
	// a directive, not part of the query identity, and never enters the key.
	NoCache bool
}

// Category derives the cache category from the query type.
func (q QueryConfig) Category() (Category, error) {
	switch q.Type {
	case QueryTypeList:
		return CategoryUserData, nil
	case QueryTypeSingle:
		return CategoryMediaData, nil
	case QueryTypeSearch:
		return CategorySearchResults, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownQueryType, q.Type)
	}
}

// SnapshotEntry is the portable form of one cache entry.
type SnapshotEntry struct {
	Key      string    `json:"key"`
	Value    any       `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Snapshot is the portable form of the whole cache, written at shutdown and
// read at startup. Entries are listed in key order within each category.
type Snapshot struct {
	Categories map[string][]SnapshotEntry `json:"categories"`
}

// Len reports the total number of entries in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, entries := range s.Categories {
		n += len(entries)
	}
	return n
}

// Operation performs one network call. The gateway never retries it; a
// failed operation is the caller's to resubmit.
type Operation func(ctx context.Context) (any, error)

// Invalidation describes a successful remote mutation. It is produced by the
// caller that performed the mutation and consumed by the Manager, the single
// cache keeper, immediately after the scheduler resolves the call.
type Invalidation struct {
	MediaID   int
	Username  string
	MediaType string
}

// Config holds the internal configuration for a Manager instance. It is
// populated by applying functional Options when a Manager is created with
// New() and is not meant to be instantiated directly.
type Config struct {
	cache     Cache
	scheduler Scheduler
	store     SnapshotStore
	pruner    Pruner
	logger    Logger
}

// Option defines the signature for a functional option that configures a
// Manager instance.
type Option func(*Config)

// WithCache sets the tiered cache backend. Mandatory.
func WithCache(c Cache) Option {
	return func(cfg *Config) {
		cfg.cache = c
	}
}

// WithScheduler sets the outbound request scheduler. Mandatory.
func WithScheduler(s Scheduler) Option {
	return func(cfg *Config) {
		cfg.scheduler = s
	}
}

// WithStore sets the snapshot store used to hydrate the cache at startup and
// flush it at shutdown. Optional; without it the cache is purely in-memory.
func WithStore(s SnapshotStore) Option {
	return func(cfg *Config) {
		cfg.store = s
	}
}

// WithPruner sets the background pruner. Optional. When set, the Manager
// starts it in Start and stops it in Close.
func WithPruner(p Pruner) Option {
	return func(cfg *Config) {
		cfg.pruner = p
	}
}

// WithLogger sets the Logger implementation for the Manager. If not set, a
// default slog-backed logger writing to os.Stderr is used.
func WithLogger(l Logger) Option {
	return func(cfg *Config) {
		cfg.logger = l
	}
}
