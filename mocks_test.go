package mediagate

import (
	"context"
	"sync"
)

// mockCache implements the Cache interface for testing. It ignores TTLs;
// expiry behavior is covered by the cache package's own tests.
type mockCache struct {
	mu       sync.Mutex
	shelves  map[Category]map[string]any
	imported *Snapshot
	closed   bool
}

func newMockCache() *mockCache {
	return &mockCache{shelves: make(map[Category]map[string]any)}
}

func (m *mockCache) Get(category Category, key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.shelves[category][key]
	return value, ok
}

func (m *mockCache) Set(category Category, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shelves[category] == nil {
		m.shelves[category] = make(map[string]any)
	}
	m.shelves[category][key] = value
}

func (m *mockCache) Delete(category Category, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shelves[category], key)
}

func (m *mockCache) Keys(category Category) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.shelves[category]))
	for key := range m.shelves[category] {
		keys = append(keys, key)
	}
	return keys
}

func (m *mockCache) ClearCategory(category Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shelves[category] = make(map[string]any)
}

func (m *mockCache) Prune() map[Category]int {
	return map[Category]int{}
}

func (m *mockCache) Export() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := &Snapshot{Categories: make(map[string][]SnapshotEntry)}
	for category, shelf := range m.shelves {
		for key, value := range shelf {
			snap.Categories[category.String()] = append(snap.Categories[category.String()], SnapshotEntry{Key: key, Value: value})
		}
	}
	return snap
}

func (m *mockCache) Import(snap *Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imported = snap
	for name, entries := range snap.Categories {
		category, err := ParseCategory(name)
		if err != nil {
			continue
		}
		if m.shelves[category] == nil {
			m.shelves[category] = make(map[string]any)
		}
		for _, e := range entries {
			m.shelves[category][e.Key] = e.Value
		}
	}
}

func (m *mockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, shelf := range m.shelves {
		n += len(shelf)
	}
	return n
}

func (m *mockCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockScheduler implements the Scheduler interface, executing operations
// inline and counting them.
type mockScheduler struct {
	mu     sync.Mutex
	calls  int
	closed bool
}

func (m *mockScheduler) Do(ctx context.Context, op Operation) (any, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrSchedulerClosed
	}
	m.calls++
	m.mu.Unlock()
	return op(ctx)
}

func (m *mockScheduler) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockScheduler) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockStore implements the SnapshotStore interface with injectable failures.
type mockStore struct {
	mu      sync.Mutex
	snap    *Snapshot
	loadErr error
	saveErr error
	saved   int
	closed  bool
}

func (m *mockStore) Load(_ context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.snap == nil {
		return nil, ErrNotFound
	}
	return m.snap, nil
}

func (m *mockStore) Save(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = snap
	m.saved++
	return nil
}

func (m *mockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockPruner implements the Pruner interface, recording lifecycle calls.
type mockPruner struct {
	mu      sync.Mutex
	started int
	stopped int
}

func (m *mockPruner) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *mockPruner) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
}
