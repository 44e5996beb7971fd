package storage

import (
	"context"
)

type ArchiveResult struct {
	Key      string
	Location string
	ETag     string
}

// SnapshotArchiver stores final bracket snapshots in object storage so that
// completed tournaments can be audited and disputed results replayed after
// the row leaves the hot table.
type SnapshotArchiver interface {
	Archive(ctx context.Context, bracketID string, snapshot []byte) (*ArchiveResult, error)

	Delete(ctx context.Context, bracketID string) error

	PublicURL(bracketID string) string
}
