// Package cache provides the in-memory tiered cache backing the gateway.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/altheadev/mediagate"
)

// entry is a single cached result. Entries are immutable once written; a
// refresh replaces the whole entry.
type entry struct {
	value    any
	storedAt time.Time
}

// TieredCache maps categories to keyed entries, each category with its own
// TTL. Expiry is enforced lazily on read and again by Prune sweeps.
type TieredCache struct {
	mu      sync.RWMutex
	ttls    map[mediagate.Category]time.Duration
	shelves map[mediagate.Category]map[string]entry
	logger  mediagate.Logger
}

var _ mediagate.Cache = (*TieredCache)(nil)

// New initializes a TieredCache with the default per-category TTLs.
func New(logger mediagate.Logger) *TieredCache {
	return NewWithTTLs(mediagate.DefaultTTLs(), logger)
}

// NewWithTTLs initializes a TieredCache with caller-supplied TTLs. Categories
// missing from ttls fall back to their default; a nil logger falls back to
// the package default.
func NewWithTTLs(ttls map[mediagate.Category]time.Duration, logger mediagate.Logger) *TieredCache {
	if logger == nil {
		logger = mediagate.NewDefaultLogger()
	}

	merged := mediagate.DefaultTTLs()
	for category, ttl := range ttls {
		if category.Valid() && ttl > 0 {
			merged[category] = ttl
		}
	}

	shelves := make(map[mediagate.Category]map[string]entry, len(merged))
	for _, category := range mediagate.Categories() {
		shelves[category] = make(map[string]entry)
	}

	return &TieredCache{
		ttls:    merged,
		shelves: shelves,
		logger:  logger,
	}
}

// Get retrieves a value by category and key. An entry past its category TTL
// is deleted at the moment this is discovered and reported as a miss.
func (c *TieredCache) Get(category mediagate.Category, key string) (any, bool) {
	ttl, ok := c.ttl(category)
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.shelves[category][key]
	if !ok {
		return nil, false
	}
	if time.Since(e.storedAt) > ttl {
		delete(c.shelves[category], key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value, stamping it with the current time. It overwrites any
// existing entry for the key.
func (c *TieredCache) Set(category mediagate.Category, key string, value any) {
	if _, ok := c.ttl(category); !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.shelves[category][key] = entry{value: value, storedAt: time.Now()}
}

// Delete removes a single entry. Removing an absent key is a no-op.
func (c *TieredCache) Delete(category mediagate.Category, key string) {
	if _, ok := c.ttl(category); !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.shelves[category], key)
}

// Keys returns the keys currently held in a category, expired or not.
func (c *TieredCache) Keys(category mediagate.Category) []string {
	if _, ok := c.ttl(category); !ok {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.shelves[category]))
	for key := range c.shelves[category] {
		keys = append(keys, key)
	}
	return keys
}

// ClearCategory drops every entry in one category.
func (c *TieredCache) ClearCategory(category mediagate.Category) {
	if _, ok := c.ttl(category); !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.shelves[category] = make(map[string]entry)
}

// Prune evicts every expired entry across all categories and reports
// per-category eviction counts.
func (c *TieredCache) Prune() map[mediagate.Category]int {
	now := time.Now()
	evicted := make(map[mediagate.Category]int)

	c.mu.Lock()
	defer c.mu.Unlock()

	for category, shelf := range c.shelves {
		ttl := c.ttls[category]
		for key, e := range shelf {
			if now.Sub(e.storedAt) > ttl {
				delete(shelf, key)
				evicted[category]++
			}
		}
	}
	return evicted
}

// Len reports the total number of entries across all categories, expired or
// not.
func (c *TieredCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, shelf := range c.shelves {
		n += len(shelf)
	}
	return n
}

// Export captures the cache contents in portable form. Entries are listed in
// key order within each category so snapshots are deterministic.
func (c *TieredCache) Export() *mediagate.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := &mediagate.Snapshot{
		Categories: make(map[string][]mediagate.SnapshotEntry, len(c.shelves)),
	}
	for category, shelf := range c.shelves {
		entries := make([]mediagate.SnapshotEntry, 0, len(shelf))
		for key, e := range shelf {
			entries = append(entries, mediagate.SnapshotEntry{
				Key:      key,
				Value:    e.value,
				StoredAt: e.storedAt,
			})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
		snap.Categories[category.String()] = entries
	}
	return snap
}

// Import hydrates the cache from a snapshot. Entries already past their
// category TTL are dropped, unknown categories and empty keys are skipped
// with a warning. Import never fails; at worst the cache stays empty.
func (c *TieredCache) Import(snap *mediagate.Snapshot) {
	if snap == nil {
		return
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for name, entries := range snap.Categories {
		category, err := mediagate.ParseCategory(name)
		if err != nil {
			c.logger.Warn("dropping unknown snapshot category", "category", name)
			continue
		}

		ttl := c.ttls[category]
		dropped := 0
		for _, se := range entries {
			if se.Key == "" || now.Sub(se.StoredAt) > ttl {
				dropped++
				continue
			}
			c.shelves[category][se.Key] = entry{value: se.Value, storedAt: se.StoredAt}
		}
		if dropped > 0 {
			c.logger.Debug("dropped stale snapshot entries", "category", name, "dropped", dropped)
		}
	}
}

// Close clears all entries. The cache is not usable afterwards beyond
// returning misses.
func (c *TieredCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, category := range mediagate.Categories() {
		c.shelves[category] = make(map[string]entry)
	}
	return nil
}

// ttl resolves the TTL for a category, surfacing an out-of-range category as
// a warning rather than an error.
func (c *TieredCache) ttl(category mediagate.Category) (time.Duration, bool) {
	ttl, ok := c.ttls[category]
	if !ok {
		c.logger.Warn("unknown cache category", "category", int(category))
	}
	return ttl, ok
}
