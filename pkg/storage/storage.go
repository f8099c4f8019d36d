package storage

import (
	"context"

	"github.com/skizzehq/skizze/pkg/api"
)

// ArtifactStore is the narrow query interface the core uses to read
// artifact ownership fields and maintain the view counter.
//
// Implementations must be safe for concurrent use by multiple
// goroutines. IncrementViewCount must be atomic at the store layer:
// concurrent increments on the same artifact must not lose updates.
type ArtifactStore interface {
	// GetArtifact retrieves an artifact by id.
	// Returns ErrNotFound if no artifact exists.
	GetArtifact(ctx context.Context, id string) (*api.Artifact, error)

	// IncrementViewCount adds one to the artifact's view count and
	// returns the new value. Returns ErrNotFound if no artifact exists.
	IncrementViewCount(ctx context.Context, id string) (int, error)

	// ListPublic returns up to limit public artifacts, most recently
	// updated first.
	ListPublic(ctx context.Context, limit int) ([]*api.Artifact, error)

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
