// storage/redis.go
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/altheadev/mediagate"
)

// DefaultRedisKey is the key the snapshot blob is stored under when the
// caller does not choose one.
const DefaultRedisKey = "mediagate:snapshot"

// RedisStore persists the snapshot as a single JSON blob under one Redis
// key, for hosts that share a cache across devices.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ mediagate.SnapshotStore = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr string, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis store: failed to connect: %w", err)
	}

	return &RedisStore{
		client: client,
		key:    DefaultRedisKey,
	}, nil
}

// WithKey overrides the Redis key the snapshot is stored under.
func (s *RedisStore) WithKey(key string) *RedisStore {
	if key != "" {
		s.key = key
	}
	return s
}

// Load fetches and decodes the snapshot blob. A missing key yields
// mediagate.ErrNotFound; an undecodable blob yields a wrapped
// mediagate.ErrCorruptSnapshot.
func (s *RedisStore) Load(ctx context.Context) (*mediagate.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, mediagate.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: failed to get snapshot: %w", err)
	}

	var snap mediagate.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", mediagate.ErrCorruptSnapshot, err)
	}
	return &snap, nil
}

// Save encodes and stores the snapshot blob without expiry; the entries
// carry their own TTLs and are filtered at hydration time.
func (s *RedisStore) Save(ctx context.Context, snap *mediagate.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis store: failed to encode snapshot: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis store: failed to set snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
