package storage

import "errors"

// Sentinel errors returned by ArtifactStore implementations.
var (
	// ErrNotFound indicates the artifact does not exist.
	ErrNotFound = errors.New("artifact not found")

	// ErrConflict indicates an artifact with the same id already exists.
	ErrConflict = errors.New("artifact already exists")
)
