package memory

import (
	"context"
	"errors"
	"testing"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/storage"
)

func TestScenarioStore_InsertAndGetByGameweek(t *testing.T) {
	s := NewScenarioStore()
	ctx := context.Background()

	records := []*domain.ScenarioRecord{
		{Name: "Conservative", Gameweek: 5, NetPoints: 40.0, CreatedAt: 1000},
		{Name: "Aggressive", Gameweek: 5, NetPoints: 44.5, CreatedAt: 1000},
		{Name: "Single Transfer", Gameweek: 6, NetPoints: 42.0, CreatedAt: 1000},
	}
	for _, r := range records {
		if err := s.Insert(ctx, r); err != nil {
			t.Fatalf("insert %s: %v", r.Name, err)
		}
	}

	got, err := s.GetByGameweek(ctx, 5)
	if err != nil {
		t.Fatalf("GetByGameweek: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Name != "Aggressive" {
		t.Errorf("expected highest net points first, got %s", got[0].Name)
	}
}

func TestScenarioStore_DuplicateKey(t *testing.T) {
	s := NewScenarioStore()
	ctx := context.Background()

	r := &domain.ScenarioRecord{Name: "Conservative", Gameweek: 5, CreatedAt: 1000}
	if err := s.Insert(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}

	dup := &domain.ScenarioRecord{Name: "Conservative", Gameweek: 5, CreatedAt: 1000}
	if err := s.Insert(ctx, dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestScenarioStore_InvalidInput(t *testing.T) {
	s := NewScenarioStore()
	ctx := context.Background()

	if err := s.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil, got %v", err)
	}
	if err := s.Insert(ctx, &domain.ScenarioRecord{Name: "", Gameweek: 5}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty name, got %v", err)
	}
}
