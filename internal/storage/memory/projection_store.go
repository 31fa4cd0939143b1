package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/storage"
)

// ProjectionStore is an in-memory implementation of storage.ProjectionStore.
type ProjectionStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.ProjectionRecord // keyed by composite key
	nextID int64
}

// NewProjectionStore creates a new in-memory projection store.
func NewProjectionStore() *ProjectionStore {
	return &ProjectionStore{
		data:   make(map[string]*domain.ProjectionRecord),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.ProjectionStore = (*ProjectionStore)(nil)

// projectionKey generates a unique key for a record.
func projectionKey(playerID, gameweek int, createdAt int64) string {
	return fmt.Sprintf("%d|%d|%d", playerID, gameweek, createdAt)
}

// Insert adds a new record and assigns its ID. Returns ErrDuplicateKey
// if (player_id, gameweek, created_at) exists.
func (s *ProjectionStore) Insert(_ context.Context, r *domain.ProjectionRecord) error {
	if r == nil || r.PlayerID <= 0 || r.Gameweek <= 0 {
		return storage.ErrInvalidInput
	}

	key := projectionKey(r.PlayerID, r.Gameweek, r.CreatedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	r.ID = s.nextID
	s.nextID++

	recCopy := *r
	s.data[key] = &recCopy
	return nil
}

// GetByPlayer retrieves records for a player, newest first.
func (s *ProjectionStore) GetByPlayer(_ context.Context, playerID, limit int) ([]*domain.ProjectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ProjectionRecord
	for _, r := range s.data {
		if r.PlayerID == playerID {
			recCopy := *r
			result = append(result, &recCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetLatest retrieves the most recent record for a player and gameweek.
func (s *ProjectionStore) GetLatest(_ context.Context, playerID, gameweek int) (*domain.ProjectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.ProjectionRecord
	for _, r := range s.data {
		if r.PlayerID != playerID || r.Gameweek != gameweek {
			continue
		}
		if latest == nil || r.CreatedAt > latest.CreatedAt ||
			(r.CreatedAt == latest.CreatedAt && r.ID > latest.ID) {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	recCopy := *latest
	return &recCopy, nil
}
