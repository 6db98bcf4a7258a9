package storage

import (
	"context"
	"sync"

	"github.com/altheadev/mediagate"
)

// MemoryStore implements the Store interface using an in-memory snapshot.
// This is useful for testing or hosts where persistence is not required.
type MemoryStore struct {
	mu     sync.RWMutex
	snap   *mediagate.Snapshot
	closed bool
}

var _ mediagate.SnapshotStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the most recently saved snapshot.
// It returns mediagate.ErrNotFound when nothing has been saved yet.
func (s *MemoryStore) Load(_ context.Context) (*mediagate.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, mediagate.ErrStoreUnavailable
	}
	if s.snap == nil {
		return nil, mediagate.ErrNotFound
	}
	return cloneSnapshot(s.snap), nil
}

// Save stores a copy of snap, replacing any previous snapshot.
func (s *MemoryStore) Save(_ context.Context, snap *mediagate.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return mediagate.ErrStoreUnavailable
	}
	s.snap = cloneSnapshot(snap)
	return nil
}

// Close drops the stored snapshot and marks the store unavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.snap = nil
	return nil
}

// cloneSnapshot copies the snapshot structure so callers cannot mutate the
// stored state through a retained pointer. Values are opaque and shared.
func cloneSnapshot(snap *mediagate.Snapshot) *mediagate.Snapshot {
	if snap == nil {
		return nil
	}
	out := &mediagate.Snapshot{
		Categories: make(map[string][]mediagate.SnapshotEntry, len(snap.Categories)),
	}
	for name, entries := range snap.Categories {
		copied := make([]mediagate.SnapshotEntry, len(entries))
		copy(copied, entries)
		out.Categories[name] = copied
	}
	return out
}
