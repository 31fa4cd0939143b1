package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/storage"
)

// ScenarioStore is an in-memory implementation of storage.ScenarioStore.
type ScenarioStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.ScenarioRecord // keyed by composite key
	nextID int64
}

// NewScenarioStore creates a new in-memory scenario store.
func NewScenarioStore() *ScenarioStore {
	return &ScenarioStore{
		data:   make(map[string]*domain.ScenarioRecord),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.ScenarioStore = (*ScenarioStore)(nil)

// scenarioKey generates a unique key for a record.
func scenarioKey(name string, gameweek int, createdAt int64) string {
	return fmt.Sprintf("%s|%d|%d", name, gameweek, createdAt)
}

// Insert adds a new record and assigns its ID. Returns ErrDuplicateKey
// if (name, gameweek, created_at) exists.
func (s *ScenarioStore) Insert(_ context.Context, r *domain.ScenarioRecord) error {
	if r == nil || r.Name == "" || r.Gameweek <= 0 {
		return storage.ErrInvalidInput
	}

	key := scenarioKey(r.Name, r.Gameweek, r.CreatedAt)

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

// GetByGameweek retrieves records for a gameweek ordered by net points
// descending.
func (s *ScenarioStore) GetByGameweek(_ context.Context, gameweek int) ([]*domain.ScenarioRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScenarioRecord
	for _, r := range s.data {
		if r.Gameweek == gameweek {
			recCopy := *r
			result = append(result, &recCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].NetPoints != result[j].NetPoints {
			return result[i].NetPoints > result[j].NetPoints
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
