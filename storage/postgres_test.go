package storage

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/altheadev/mediagate"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	original := sqlOpenFunc
	sqlOpenFunc = func(driverName, dataSourceName string) (*sql.DB, error) {
		return db, nil
	}
	t.Cleanup(func() { sqlOpenFunc = original })

	mock.ExpectPing()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS cache_snapshot")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewPostgresStore("postgres://mock")
	require.NoError(t, err)
	return store, mock
}

func TestPostgresStoreSave(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	defer store.Close()

	storedAt := time.Now().UTC()
	blob, err := msgpack.Marshal("score: 8")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(pgDeleteAllSQL)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO cache_snapshot"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cache_snapshot")).
		WithArgs("media_data", "mediaId=42&type=single&username=alice", blob, storedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	snap := &mediagate.Snapshot{Categories: map[string][]mediagate.SnapshotEntry{
		"media_data": {
			{Key: "mediaId=42&type=single&username=alice", Value: "score: 8", StoredAt: storedAt},
		},
	}}
	require.NoError(t, store.Save(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreLoad(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	defer store.Close()

	storedAt := time.Now().UTC()
	blob, err := msgpack.Marshal("score: 8")
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"category", "key", "value", "stored_at"}).
		AddRow("media_data", "mediaId=42&type=single&username=alice", blob, storedAt)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT category, key, value, stored_at")).
		WillReturnRows(rows)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Categories["media_data"], 1)
	assert.Equal(t, "score: 8", snap.Categories["media_data"][0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreLoadEmpty(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	defer store.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT category, key, value, stored_at")).
		WillReturnRows(sqlmock.NewRows([]string{"category", "key", "value", "stored_at"}))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, mediagate.ErrNotFound)
}

func TestPostgresStoreLoadCorruptValue(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	defer store.Close()

	rows := sqlmock.NewRows([]string{"category", "key", "value", "stored_at"}).
		AddRow("media_data", "mediaId=42&type=single", []byte{0xc1}, time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT category, key, value, stored_at")).
		WillReturnRows(rows)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, mediagate.ErrCorruptSnapshot)
}
