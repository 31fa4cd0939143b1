package storage

import (
	"context"

	"fpl-toolkit/internal/domain"
)

// ProjectionStore provides access to the projection audit log. Records
// are append-only; re-running a projection appends a new record with a
// later created_at rather than updating the old one.
type ProjectionStore interface {
	// Insert adds a new record and assigns its ID. Returns
	// ErrDuplicateKey if (player_id, gameweek, created_at) exists.
	Insert(ctx context.Context, r *domain.ProjectionRecord) error

	// GetByPlayer retrieves records for a player, newest first,
	// bounded by limit (0 means no limit).
	GetByPlayer(ctx context.Context, playerID, limit int) ([]*domain.ProjectionRecord, error)

	// GetLatest retrieves the most recent record for a player and
	// gameweek. Returns ErrNotFound if none exists.
	GetLatest(ctx context.Context, playerID, gameweek int) (*domain.ProjectionRecord, error)
}

// ScenarioStore provides access to planned scenario storage.
type ScenarioStore interface {
	// Insert adds a new record and assigns its ID. Returns
	// ErrDuplicateKey if (name, gameweek, created_at) exists.
	Insert(ctx context.Context, r *domain.ScenarioRecord) error

	// GetByGameweek retrieves records for a gameweek ordered by net
	// points descending.
	GetByGameweek(ctx context.Context, gameweek int) ([]*domain.ScenarioRecord, error)
}

// ProjectionHistoryStore provides access to the projection history
// timeseries.
type ProjectionHistoryStore interface {
	// InsertBulk adds multiple points. Fails the entire batch on a
	// duplicate (player_id, gameweek, computed_at).
	InsertBulk(ctx context.Context, points []*domain.ProjectionHistoryPoint) error

	// GetByPlayer retrieves points for a player with computed_at >=
	// since, ordered by computed_at ASC.
	GetByPlayer(ctx context.Context, playerID int, since int64) ([]*domain.ProjectionHistoryPoint, error)
}
