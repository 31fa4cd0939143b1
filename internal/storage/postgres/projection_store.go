package postgres

import (
	"context"
	"fmt"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/storage"
)

// ProjectionStore implements storage.ProjectionStore using PostgreSQL.
type ProjectionStore struct {
	pool *Pool
}

// NewProjectionStore creates a new ProjectionStore.
func NewProjectionStore(pool *Pool) *ProjectionStore {
	return &ProjectionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProjectionStore = (*ProjectionStore)(nil)

// Insert adds a new record and assigns its ID. Returns ErrDuplicateKey
// if (player_id, gameweek, created_at) exists.
func (s *ProjectionStore) Insert(ctx context.Context, r *domain.ProjectionRecord) error {
	if r == nil || r.PlayerID <= 0 || r.Gameweek <= 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO projections (
			player_id, gameweek, points, minutes, confidence, difficulty, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		r.PlayerID, r.Gameweek, r.Points, r.Minutes, r.Confidence, r.Difficulty, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert projection: %w", err)
	}
	return nil
}

// GetByPlayer retrieves records for a player, newest first.
func (s *ProjectionStore) GetByPlayer(ctx context.Context, playerID, limit int) ([]*domain.ProjectionRecord, error) {
	query := `
		SELECT id, player_id, gameweek, points, minutes, confidence, difficulty, created_at
		FROM projections
		WHERE player_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{playerID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projections: %w", err)
	}
	defer rows.Close()

	var result []*domain.ProjectionRecord
	for rows.Next() {
		var r domain.ProjectionRecord
		if err := rows.Scan(&r.ID, &r.PlayerID, &r.Gameweek, &r.Points, &r.Minutes,
			&r.Confidence, &r.Difficulty, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan projection: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projections: %w", err)
	}
	return result, nil
}

// GetLatest retrieves the most recent record for a player and gameweek.
func (s *ProjectionStore) GetLatest(ctx context.Context, playerID, gameweek int) (*domain.ProjectionRecord, error) {
	query := `
		SELECT id, player_id, gameweek, points, minutes, confidence, difficulty, created_at
		FROM projections
		WHERE player_id = $1 AND gameweek = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var r domain.ProjectionRecord
	err := s.pool.QueryRow(ctx, query, playerID, gameweek).Scan(
		&r.ID, &r.PlayerID, &r.Gameweek, &r.Points, &r.Minutes,
		&r.Confidence, &r.Difficulty, &r.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest projection: %w", err)
	}
	return &r, nil
}
