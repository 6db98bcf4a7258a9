// Package storage provides snapshot persistence backends for the gateway
// cache.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/altheadev/mediagate"
)

// Encryptor encrypts snapshot blobs at rest. The encryption package's
// Manager satisfies this interface.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// FileStore persists the snapshot as a single JSON blob on disk, replaced
// atomically on every save. Snapshots may contain personal list data, so an
// optional Encryptor can seal the blob at rest.
type FileStore struct {
	path string
	enc  Encryptor
}

var _ mediagate.SnapshotStore = (*FileStore)(nil)

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithEncryptor seals snapshot blobs with enc before they touch disk.
func WithEncryptor(enc Encryptor) FileOption {
	return func(s *FileStore) {
		s.enc = enc
	}
}

// NewFileStore creates a FileStore writing to path. The parent directory is
// created if it does not exist.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file store: failed to create directory: %w", err)
	}

	s := &FileStore{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load reads and decodes the snapshot blob. A missing file yields
// mediagate.ErrNotFound; an undecodable one yields a wrapped
// mediagate.ErrCorruptSnapshot so callers can degrade to an empty cache.
func (s *FileStore) Load(_ context.Context) (*mediagate.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, mediagate.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("file store: failed to read snapshot: %w", err)
	}

	if s.enc != nil {
		data, err = s.enc.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", mediagate.ErrCorruptSnapshot, err)
		}
	}

	var snap mediagate.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", mediagate.ErrCorruptSnapshot, err)
	}
	return &snap, nil
}

// Save encodes snap and atomically replaces the snapshot file via a temp
// file and rename, so a crash mid-write never leaves a truncated blob.
func (s *FileStore) Save(_ context.Context, snap *mediagate.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("file store: failed to encode snapshot: %w", err)
	}

	if s.enc != nil {
		data, err = s.enc.Encrypt(data)
		if err != nil {
			return fmt.Errorf("file store: failed to encrypt snapshot: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("file store: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file store: failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file store: failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file store: failed to replace snapshot: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only held open during Load and Save.
func (s *FileStore) Close() error {
	return nil
}
