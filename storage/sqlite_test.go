package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altheadev/mediagate"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreLoadEmpty(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, mediagate.ErrNotFound)
}

func TestSQLiteStoreSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	storedAt := time.Now().UTC().Truncate(time.Second)
	snap := &mediagate.Snapshot{Categories: map[string][]mediagate.SnapshotEntry{
		"media_data": {
			{Key: "mediaId=42&type=single&username=alice", Value: "score: 8", StoredAt: storedAt},
			{Key: "mediaId=99&type=single&username=alice", Value: "score: 6", StoredAt: storedAt},
		},
		"search_results": {
			{Key: "search=bebop&type=search", Value: []any{"cowboy bebop"}, StoredAt: storedAt},
		},
	}}
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Len())

	media := loaded.Categories["media_data"]
	require.Len(t, media, 2)
	// Rows come back ordered by category, key.
	assert.Equal(t, "mediaId=42&type=single&username=alice", media[0].Key)
	assert.Equal(t, "score: 8", media[0].Value)
	assert.WithinDuration(t, storedAt, media[0].StoredAt, time.Second)
}

func TestSQLiteStoreSaveReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	require.NoError(t, store.Save(ctx, &mediagate.Snapshot{Categories: map[string][]mediagate.SnapshotEntry{
		"user_data": {{Key: "only", Value: "remaining", StoredAt: time.Now().UTC()}},
	}}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.Empty(t, loaded.Categories["media_data"])
}

func TestSQLiteStoreSaveNilSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	require.NoError(t, store.Save(ctx, nil))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, mediagate.ErrNotFound)
}
