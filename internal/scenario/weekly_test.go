package scenario

import (
	"context"
	"testing"

	"fpl-toolkit/internal/domain"
)

func TestPlanWeekly_SwapsOutOfHardFixture(t *testing.T) {
	src := newTestSource()
	src.AddTeam(strengthTeam(3, "Strong", 1000))
	src.AddTeam(strengthTeam(4, "Weakly", 500))
	src.AddTeam(strengthTeam(5, "Middle", 750))

	ids := addSquad(src, 4)

	// One midfielder plays for a club facing a strong side away;
	// everyone else has a blank week.
	src.PlayerList[9].TeamID = 5
	src.AddFixture(domain.Fixture{ID: 1, Gameweek: 2, HomeTeamID: 3, AwayTeamID: 5})

	// A same-position replacement has an easy home fixture.
	src.AddFixture(domain.Fixture{ID: 2, Gameweek: 2, HomeTeamID: 2, AwayTeamID: 4})
	addPlayer(src, 300, 2, "Easy", domain.PositionMID, 7.0, 6, domain.Available)

	p := newTestPlanner(src)
	state := &domain.TeamState{PlayerIDs: ids, Bank: 2.0, FreeTransfers: 1, Gameweek: 2}

	plan, err := p.PlanWeekly(context.Background(), state, 1)
	if err != nil {
		t.Fatalf("PlanWeekly: %v", err)
	}

	if len(plan.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(plan.Steps))
	}
	step := plan.Steps[0]
	if step.Gameweek != 2 {
		t.Errorf("expected gameweek 2, got %d", step.Gameweek)
	}

	// Away at a 4.0-strength side scores 4.3, over the hard cutoff.
	if len(step.FlaggedPlayers) != 1 || step.FlaggedPlayers[0] != ids[9] {
		t.Fatalf("expected player %d flagged, got %v", ids[9], step.FlaggedPlayers)
	}

	if len(step.Moves) != 1 {
		t.Fatalf("expected 1 move, got %d", len(step.Moves))
	}
	move := step.Moves[0]
	if move.PlayerOutID != ids[9] || move.PlayerInID != 300 {
		t.Errorf("unexpected move: %+v", move)
	}
	// Out: 4 ppg on a hard away week is 3.2. In: 6 ppg on an easy home
	// week is 6*1.2*1.1 = 7.92. Gain 4.72.
	if !almostEqual(move.Gain, 4.72) {
		t.Errorf("expected gain 4.72, got %v", move.Gain)
	}

	// 14 blank-week players at 4.0 plus the flagged 3.2 plus the gain.
	if !almostEqual(step.EstimatedPoints, 14*4.0+3.2+4.72) {
		t.Errorf("unexpected week estimate %v", step.EstimatedPoints)
	}
	if plan.TotalTransfers != 1 {
		t.Errorf("expected 1 transfer, got %d", plan.TotalTransfers)
	}
}

func TestPlanWeekly_CarriesSwapsForward(t *testing.T) {
	src := newTestSource()
	src.AddTeam(strengthTeam(3, "Strong", 1000))
	src.AddTeam(strengthTeam(4, "Weakly", 500))
	src.AddTeam(strengthTeam(5, "Middle", 750))

	ids := addSquad(src, 4)
	src.PlayerList[9].TeamID = 5
	src.AddFixture(domain.Fixture{ID: 1, Gameweek: 2, HomeTeamID: 3, AwayTeamID: 5})
	src.AddFixture(domain.Fixture{ID: 2, Gameweek: 2, HomeTeamID: 2, AwayTeamID: 4})
	addPlayer(src, 300, 2, "Easy", domain.PositionMID, 7.0, 6, domain.Available)

	p := newTestPlanner(src)
	state := &domain.TeamState{PlayerIDs: ids, Bank: 2.0, FreeTransfers: 1, Gameweek: 2}

	plan, err := p.PlanWeekly(context.Background(), state, 2)
	if err != nil {
		t.Fatalf("PlanWeekly: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}

	// The second week is blank, so the week-one swap shows up as the
	// replacement's rate in the squad estimate.
	second := plan.Steps[1]
	if second.Gameweek != 3 {
		t.Errorf("expected gameweek 3, got %d", second.Gameweek)
	}
	if len(second.Moves) != 0 || len(second.FlaggedPlayers) != 0 {
		t.Errorf("expected a quiet second week, got %+v", second)
	}
	if !almostEqual(second.EstimatedPoints, 14*4.0+6.0) {
		t.Errorf("unexpected second week estimate %v", second.EstimatedPoints)
	}
	if plan.TotalTransfers != 1 {
		t.Errorf("expected 1 transfer across the plan, got %d", plan.TotalTransfers)
	}
}

func TestPlanWeekly_BlankWeeksUseSeasonRate(t *testing.T) {
	src := newTestSource()
	ids := addSquad(src, 4)

	p := newTestPlanner(src)
	state := &domain.TeamState{PlayerIDs: ids, FreeTransfers: 1, Gameweek: 2}

	plan, err := p.PlanWeekly(context.Background(), state, 1)
	if err != nil {
		t.Fatalf("PlanWeekly: %v", err)
	}
	step := plan.Steps[0]
	if len(step.Moves) != 0 || len(step.FlaggedPlayers) != 0 {
		t.Errorf("expected no activity on a blank week, got %+v", step)
	}
	if !almostEqual(step.EstimatedPoints, 15*4.0) {
		t.Errorf("expected plain season-rate sum, got %v", step.EstimatedPoints)
	}
}

func TestPlanWeekly_InvalidWeeks(t *testing.T) {
	src := newTestSource()
	ids := addSquad(src, 4)

	p := newTestPlanner(src)
	state := &domain.TeamState{PlayerIDs: ids, Gameweek: 2}
	if _, err := p.PlanWeekly(context.Background(), state, 0); err == nil {
		t.Error("expected error for non-positive weeks")
	}
}
