// Package storage provides a SQLite-based implementation of the Store
// interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/vmihailenco/msgpack/v5"

	"github.com/altheadev/mediagate"
)

const (
	sqliteCreateTableSQL = `
		CREATE TABLE IF NOT EXISTS cache_snapshot (
			category TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL,
			stored_at TIMESTAMP NOT NULL,
			PRIMARY KEY (category, key)
		);
	`

	sqliteDeleteAllSQL = `DELETE FROM cache_snapshot`

	sqliteInsertSQL = `
		INSERT INTO cache_snapshot (category, key, value, stored_at)
		VALUES (?, ?, ?, ?)
	`

	sqliteSelectAllSQL = `
		SELECT category, key, value, stored_at
		FROM cache_snapshot
		ORDER BY category, key
	`
)

// SQLiteStore implements the Store interface using SQLite, one row per cache
// entry. Values are msgpack-encoded into the BLOB column.
type SQLiteStore struct {
	db *sql.DB
}

var _ mediagate.SnapshotStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes a new SQLiteStore instance.
// It connects to the SQLite database at the specified path and runs
// migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(sqliteCreateTableSQL)
	return err
}

// Save replaces the persisted snapshot in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *mediagate.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite store: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqliteDeleteAllSQL); err != nil {
		return fmt.Errorf("sqlite store: failed to clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, sqliteInsertSQL)
	if err != nil {
		return fmt.Errorf("sqlite store: failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	if snap != nil {
		for category, entries := range snap.Categories {
			for _, e := range entries {
				value, err := msgpack.Marshal(e.Value)
				if err != nil {
					return fmt.Errorf("sqlite store: failed to encode value for %s/%s: %w", category, e.Key, err)
				}
				if _, err := stmt.ExecContext(ctx, category, e.Key, value, e.StoredAt); err != nil {
					return fmt.Errorf("sqlite store: failed to insert entry %s/%s: %w", category, e.Key, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite store: failed to commit snapshot: %w", err)
	}
	return nil
}

// Load reassembles the persisted snapshot. It returns mediagate.ErrNotFound
// when no rows exist and a wrapped mediagate.ErrCorruptSnapshot when a value
// cannot be decoded.
func (s *SQLiteStore) Load(ctx context.Context) (*mediagate.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectAllSQL)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: failed to query snapshot: %w", err)
	}
	defer rows.Close()

	snap := &mediagate.Snapshot{Categories: make(map[string][]mediagate.SnapshotEntry)}
	for rows.Next() {
		var (
			category string
			key      string
			blob     []byte
			storedAt time.Time
		)
		if err := rows.Scan(&category, &key, &blob, &storedAt); err != nil {
			return nil, fmt.Errorf("sqlite store: failed to scan entry: %w", err)
		}

		var value any
		if err := msgpack.Unmarshal(blob, &value); err != nil {
			return nil, fmt.Errorf("%w: entry %s/%s: %v", mediagate.ErrCorruptSnapshot, category, key, err)
		}

		snap.Categories[category] = append(snap.Categories[category], mediagate.SnapshotEntry{
			Key:      key,
			Value:    value,
			StoredAt: storedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite store: failed to iterate snapshot: %w", err)
	}

	if snap.Len() == 0 {
		return nil, mediagate.ErrNotFound
	}
	return snap, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
