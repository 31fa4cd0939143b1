package memory

import (
	"context"
	"sort"
	"sync"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/storage"
)

// ProjectionHistoryStore is an in-memory implementation of
// storage.ProjectionHistoryStore.
type ProjectionHistoryStore struct {
	mu   sync.RWMutex
	data map[historyKey]*domain.ProjectionHistoryPoint
}

type historyKey struct {
	playerID   int
	gameweek   int
	computedAt int64
}

// NewProjectionHistoryStore creates a new in-memory history store.
func NewProjectionHistoryStore() *ProjectionHistoryStore {
	return &ProjectionHistoryStore{
		data: make(map[historyKey]*domain.ProjectionHistoryPoint),
	}
}

// Compile-time interface check.
var _ storage.ProjectionHistoryStore = (*ProjectionHistoryStore)(nil)

// InsertBulk adds multiple points. Fails the entire batch on any
// duplicate, existing or intra-batch.
func (s *ProjectionHistoryStore) InsertBulk(_ context.Context, points []*domain.ProjectionHistoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[historyKey]struct{}, len(points))

	// First pass: validate and check for duplicates
	for _, p := range points {
		if p == nil || p.PlayerID <= 0 || p.Gameweek <= 0 {
			return storage.ErrInvalidInput
		}
		k := historyKey{p.PlayerID, p.Gameweek, p.ComputedAt}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		k := historyKey{p.PlayerID, p.Gameweek, p.ComputedAt}
		pCopy := *p
		s.data[k] = &pCopy
	}
	return nil
}

// GetByPlayer retrieves points for a player with computed_at >= since,
// ordered by computed_at ASC.
func (s *ProjectionHistoryStore) GetByPlayer(_ context.Context, playerID int, since int64) ([]*domain.ProjectionHistoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ProjectionHistoryPoint
	for _, p := range s.data {
		if p.PlayerID == playerID && p.ComputedAt >= since {
			pCopy := *p
			result = append(result, &pCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ComputedAt != result[j].ComputedAt {
			return result[i].ComputedAt < result[j].ComputedAt
		}
		return result[i].Gameweek < result[j].Gameweek
	})
	return result, nil
}
