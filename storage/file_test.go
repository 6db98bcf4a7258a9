package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altheadev/mediagate"
	"github.com/altheadev/mediagate/encryption"
)

func TestFileStoreRequiresPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "snapshot.json"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, mediagate.ErrNotFound)
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "snapshot.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, "entry", loaded.Categories["media_data"][0].Value)
}

func TestFileStoreSaveReplacesAtomically(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	require.NoError(t, store.Save(ctx, &mediagate.Snapshot{Categories: map[string][]mediagate.SnapshotEntry{}}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreLoadCorruptBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, mediagate.ErrCorruptSnapshot)
}

func TestFileStoreEncryptedRoundTrip(t *testing.T) {
	ctx := context.Background()
	enc, err := encryption.NewManagerWithKey([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshot.bin")
	store, err := NewFileStore(path, WithEncryptor(enc))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	// The blob on disk is sealed, not plaintext JSON.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "media_data")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
}

func TestFileStoreEncryptedLoadWithWrongKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshot.bin")

	enc, err := encryption.NewManagerWithKey([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	store, err := NewFileStore(path, WithEncryptor(enc))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	wrong, err := encryption.NewManagerWithKey([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)
	tampered, err := NewFileStore(path, WithEncryptor(wrong))
	require.NoError(t, err)

	_, err = tampered.Load(ctx)
	assert.ErrorIs(t, err, mediagate.ErrCorruptSnapshot)
}
