package main

import (
	"net/http/httptest"
	"strings"
	"testing"

	"fpl-toolkit/internal/config"
	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/fpl/stub"
)

func newDecodeServer() *Server {
	src := stub.NewSource()
	src.AddGameweek(domain.Gameweek{ID: 2, IsCurrent: true})
	return &Server{
		cfg: &config.Config{
			Planner: config.PlannerConfig{Horizon: 5, ScenarioCount: 5, WeeksAhead: 4},
		},
		source: src,
	}
}

func TestDecodeTeam_Defaults(t *testing.T) {
	s := newDecodeServer()
	r := httptest.NewRequest("POST", "/api/team/advise",
		strings.NewReader(`{"player_ids":[10,11],"bank":1.5}`))

	state, req, err := s.decodeTeam(r)
	if err != nil {
		t.Fatalf("decodeTeam: %v", err)
	}
	if state.FreeTransfers != 1 {
		t.Errorf("expected 1 free transfer when absent, got %d", state.FreeTransfers)
	}
	if state.Gameweek != 2 {
		t.Errorf("expected current gameweek 2, got %d", state.Gameweek)
	}
	if req.Horizon != 5 || req.ScenarioCount != 5 || req.Weeks != 4 {
		t.Errorf("expected planner defaults, got %+v", req)
	}
}

func TestDecodeTeam_ExplicitZeroFreeTransfers(t *testing.T) {
	s := newDecodeServer()
	r := httptest.NewRequest("POST", "/api/team/advise",
		strings.NewReader(`{"player_ids":[10,11],"free_transfers":0}`))

	state, _, err := s.decodeTeam(r)
	if err != nil {
		t.Fatalf("decodeTeam: %v", err)
	}
	if state.FreeTransfers != 0 {
		t.Errorf("explicit zero free transfers coerced to %d", state.FreeTransfers)
	}
}
