package clickhouse

import (
	"context"
	"fmt"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/storage"
)

// ProjectionHistoryStore implements storage.ProjectionHistoryStore
// using ClickHouse.
type ProjectionHistoryStore struct {
	conn *Conn
}

// NewProjectionHistoryStore creates a new ProjectionHistoryStore.
func NewProjectionHistoryStore(conn *Conn) *ProjectionHistoryStore {
	return &ProjectionHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ProjectionHistoryStore = (*ProjectionHistoryStore)(nil)

// InsertBulk adds multiple points. Fails the entire batch on a
// duplicate (player_id, gameweek, computed_at).
func (s *ProjectionHistoryStore) InsertBulk(ctx context.Context, points []*domain.ProjectionHistoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		playerID   int
		gameweek   int
		computedAt int64
	}
	seen := make(map[key]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.PlayerID <= 0 || p.Gameweek <= 0 {
			return storage.ErrInvalidInput
		}
		k := key{p.PlayerID, p.Gameweek, p.ComputedAt}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing rows. MergeTree does not
	// enforce uniqueness at insert time.
	for _, p := range points {
		exists, err := s.exists(ctx, p.PlayerID, p.Gameweek, p.ComputedAt)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO projection_history (
			player_id, gameweek, computed_at, points, confidence
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			int32(p.PlayerID), int32(p.Gameweek), p.ComputedAt,
			p.Points, p.Confidence,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPlayer retrieves points for a player with computed_at >= since,
// ordered by computed_at ASC.
func (s *ProjectionHistoryStore) GetByPlayer(ctx context.Context, playerID int, since int64) ([]*domain.ProjectionHistoryPoint, error) {
	query := `
		SELECT player_id, gameweek, computed_at, points, confidence
		FROM projection_history
		WHERE player_id = ? AND computed_at >= ?
		ORDER BY computed_at ASC, gameweek ASC
	`

	rows, err := s.conn.Query(ctx, query, int32(playerID), since)
	if err != nil {
		return nil, fmt.Errorf("query projection history: %w", err)
	}
	defer rows.Close()

	var result []*domain.ProjectionHistoryPoint
	for rows.Next() {
		var (
			pid, gw int32
			p       domain.ProjectionHistoryPoint
		)
		if err := rows.Scan(&pid, &gw, &p.ComputedAt, &p.Points, &p.Confidence); err != nil {
			return nil, fmt.Errorf("scan history point: %w", err)
		}
		p.PlayerID = int(pid)
		p.Gameweek = int(gw)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history points: %w", err)
	}
	return result, nil
}

// exists reports whether a point with the given key is already stored.
func (s *ProjectionHistoryStore) exists(ctx context.Context, playerID, gameweek int, computedAt int64) (bool, error) {
	query := `
		SELECT count() FROM projection_history
		WHERE player_id = ? AND gameweek = ? AND computed_at = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, int32(playerID), int32(gameweek), computedAt).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
