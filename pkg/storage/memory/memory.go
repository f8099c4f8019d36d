// Package memory provides an in-memory implementation of
// storage.ArtifactStore for testing and lightweight deployments.
// Artifacts are lost when the process restarts.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skizzehq/skizze/pkg/api"
	"github.com/skizzehq/skizze/pkg/storage"
)

// Store is an in-memory ArtifactStore guarded by a single RWMutex.
// The view-count increment runs under the write lock, so concurrent
// increments never lose updates.
type Store struct {
	mu        sync.RWMutex
	artifacts map[string]*api.Artifact
}

// Ensure Store implements storage.ArtifactStore at compile time.
var _ storage.ArtifactStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{artifacts: make(map[string]*api.Artifact)}
}

// SaveArtifact stores an artifact. Used by tests and by the external
// lifecycle owner in single-process deployments.
func (s *Store) SaveArtifact(_ context.Context, artifact *api.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artifacts[artifact.ID]; exists {
		return storage.ErrConflict
	}

	copied := *artifact
	s.artifacts[artifact.ID] = &copied
	return nil
}

// GetArtifact retrieves an artifact by id.
func (s *Store) GetArtifact(_ context.Context, id string) (*api.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.artifacts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copied := *artifact
	return &copied, nil
}

// IncrementViewCount atomically adds one to the view count and returns
// the new value.
func (s *Store) IncrementViewCount(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifact, ok := s.artifacts[id]
	if !ok {
		return 0, storage.ErrNotFound
	}

	artifact.ViewCount++
	artifact.UpdatedAt = time.Now()
	return artifact.ViewCount, nil
}

// ListPublic returns up to limit public artifacts, most recently
// updated first.
func (s *Store) ListPublic(_ context.Context, limit int) ([]*api.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*api.Artifact
	for _, artifact := range s.artifacts {
		if artifact.IsPublic {
			copied := *artifact
			matches = append(matches, &copied)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].UpdatedAt.Equal(matches[j].UpdatedAt) {
			return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
		}
		return matches[i].ID < matches[j].ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []*api.Artifact{}
	}
	return matches, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
