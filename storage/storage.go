// storage/storage.go
package storage

import (
	"context"

	"github.com/altheadev/mediagate"
)

// Store persists cache snapshots across process restarts. It mirrors
// mediagate.SnapshotStore so callers can depend on either package.
type Store interface {
	Load(ctx context.Context) (*mediagate.Snapshot, error)
	Save(ctx context.Context, snap *mediagate.Snapshot) error
	Close() error
}
