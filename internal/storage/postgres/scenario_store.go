package postgres

import (
	"context"
	"fmt"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/storage"
)

// ScenarioStore implements storage.ScenarioStore using PostgreSQL.
type ScenarioStore struct {
	pool *Pool
}

// NewScenarioStore creates a new ScenarioStore.
func NewScenarioStore(pool *Pool) *ScenarioStore {
	return &ScenarioStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScenarioStore = (*ScenarioStore)(nil)

// Insert adds a new record and assigns its ID. Returns ErrDuplicateKey
// if (name, gameweek, created_at) exists.
func (s *ScenarioStore) Insert(ctx context.Context, r *domain.ScenarioRecord) error {
	if r == nil || r.Name == "" || r.Gameweek <= 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO scenarios (
			name, gameweek, transfer_count, expected_points,
			transfer_cost, net_points, risk_level, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		r.Name, r.Gameweek, r.TransferCount, r.ExpectedPoints,
		r.TransferCost, r.NetPoints, r.RiskLevel, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert scenario: %w", err)
	}
	return nil
}

// GetByGameweek retrieves records for a gameweek ordered by net points
// descending.
func (s *ScenarioStore) GetByGameweek(ctx context.Context, gameweek int) ([]*domain.ScenarioRecord, error) {
	query := `
		SELECT id, name, gameweek, transfer_count, expected_points,
		       transfer_cost, net_points, risk_level, created_at
		FROM scenarios
		WHERE gameweek = $1
		ORDER BY net_points DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, gameweek)
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	defer rows.Close()

	var result []*domain.ScenarioRecord
	for rows.Next() {
		var r domain.ScenarioRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Gameweek, &r.TransferCount,
			&r.ExpectedPoints, &r.TransferCost, &r.NetPoints, &r.RiskLevel,
			&r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenarios: %w", err)
	}
	return result, nil
}
