package health

import (
	"context"

	"github.com/shopsense/shopsense/internal/usecase/indexer"
)

// SnapshotProvider yields the currently published catalog snapshot.
type SnapshotProvider interface {
	Current() (*indexer.Snapshot, error)
}

// StorePinger checks external index storage availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
