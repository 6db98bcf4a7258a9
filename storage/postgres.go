// Package storage provides a PostgreSQL-based implementation of the Store
// interface, for hosts that sync their cache through a shared server.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/vmihailenco/msgpack/v5"

	"github.com/altheadev/mediagate"
)

// sqlOpenFunc is a package-level variable that can be overridden for testing.
var sqlOpenFunc = sql.Open

const (
	pgCreateTableSQL = `
		CREATE TABLE IF NOT EXISTS cache_snapshot (
			category TEXT NOT NULL,
			key TEXT NOT NULL,
			value BYTEA NOT NULL,
			stored_at TIMESTAMP NOT NULL,
			PRIMARY KEY (category, key)
		);
	`

	pgDeleteAllSQL = `DELETE FROM cache_snapshot`

	pgInsertSQL = `
		INSERT INTO cache_snapshot (category, key, value, stored_at)
		VALUES ($1, $2, $3, $4)
	`

	pgSelectAllSQL = `
		SELECT category, key, value, stored_at
		FROM cache_snapshot
		ORDER BY category, key
	`
)

// PostgresStore implements the Store interface using PostgreSQL, one row per
// cache entry with msgpack-encoded values.
type PostgresStore struct {
	db *sql.DB
}

var _ mediagate.SnapshotStore = (*PostgresStore)(nil)

// NewPostgresStore initializes a new PostgresStore instance.
// It connects using the provided connection string and runs migrations.
func NewPostgresStore(connString string) (*PostgresStore, error) {
	db, err := sqlOpenFunc("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("postgres store: failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres store: failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres store: failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(pgCreateTableSQL)
	return err
}

// Save replaces the persisted snapshot in a single transaction.
func (s *PostgresStore) Save(ctx context.Context, snap *mediagate.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres store: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, pgDeleteAllSQL); err != nil {
		return fmt.Errorf("postgres store: failed to clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pgInsertSQL)
	if err != nil {
		return fmt.Errorf("postgres store: failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	if snap != nil {
		for category, entries := range snap.Categories {
			for _, e := range entries {
				value, err := msgpack.Marshal(e.Value)
				if err != nil {
					return fmt.Errorf("postgres store: failed to encode value for %s/%s: %w", category, e.Key, err)
				}
				if _, err := stmt.ExecContext(ctx, category, e.Key, value, e.StoredAt); err != nil {
					return fmt.Errorf("postgres store: failed to insert entry %s/%s: %w", category, e.Key, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres store: failed to commit snapshot: %w", err)
	}
	return nil
}

// Load reassembles the persisted snapshot. It returns mediagate.ErrNotFound
// when no rows exist and a wrapped mediagate.ErrCorruptSnapshot when a value
// cannot be decoded.
func (s *PostgresStore) Load(ctx context.Context) (*mediagate.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, pgSelectAllSQL)
	if err != nil {
		return nil, fmt.Errorf("postgres store: failed to query snapshot: %w", err)
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
			return nil, fmt.Errorf("postgres store: failed to scan entry: %w", err)
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
		return nil, fmt.Errorf("postgres store: failed to iterate snapshot: %w", err)
	}

	if snap.Len() == 0 {
		return nil, mediagate.ErrNotFound
	}
	return snap, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
