// Package postgres provides a PostgreSQL implementation of
// storage.ArtifactStore. It uses pgx/v5 for connection pooling and a
// single-statement UPDATE for the view-count increment, so concurrent
// increments never lose updates.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skizzehq/skizze/pkg/api"
	"github.com/skizzehq/skizze/pkg/storage"
)

// Store is a PostgreSQL-backed ArtifactStore.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.ArtifactStore at compile time.
var _ storage.ArtifactStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveArtifact inserts an artifact. Used by tests and by the external
// lifecycle owner when it shares this database.
func (s *Store) SaveArtifact(ctx context.Context, artifact *api.Artifact) error {
	updatedAt := artifact.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO artifacts (id, user_id, fingerprint_id, is_public, view_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		artifact.ID, artifact.UserID, artifact.FingerprintID,
		artifact.IsPublic, artifact.ViewCount, updatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting artifact: %w", err)
	}
	return nil
}

// GetArtifact retrieves an artifact by id.
func (s *Store) GetArtifact(ctx context.Context, id string) (*api.Artifact, error) {
	var artifact api.Artifact
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, fingerprint_id, is_public, view_count, updated_at
		FROM artifacts
		WHERE id = $1
	`, id).Scan(
		&artifact.ID, &artifact.UserID, &artifact.FingerprintID,
		&artifact.IsPublic, &artifact.ViewCount, &artifact.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying artifact: %w", err)
	}
	return &artifact, nil
}

// IncrementViewCount adds one to the view count in a single UPDATE and
// returns the new value.
func (s *Store) IncrementViewCount(ctx context.Context, id string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		UPDATE artifacts
		SET view_count = view_count + 1, updated_at = now()
		WHERE id = $1
		RETURNING view_count
	`, id).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("incrementing view count: %w", err)
	}
	return count, nil
}

// ListPublic returns up to limit public artifacts, most recently
// updated first.
func (s *Store) ListPublic(ctx context.Context, limit int) ([]*api.Artifact, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, fingerprint_id, is_public, view_count, updated_at
		FROM artifacts
		WHERE is_public
		ORDER BY updated_at DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing public artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []*api.Artifact{}
	for rows.Next() {
		var artifact api.Artifact
		if err := rows.Scan(
			&artifact.ID, &artifact.UserID, &artifact.FingerprintID,
			&artifact.IsPublic, &artifact.ViewCount, &artifact.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		artifacts = append(artifacts, &artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading artifacts: %w", err)
	}
	return artifacts, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
