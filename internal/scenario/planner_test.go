package scenario

import (
	"context"
	"math"
	"strings"
	"testing"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/fixtures"
	"fpl-toolkit/internal/fpl/stub"
	"fpl-toolkit/internal/projection"
	"fpl-toolkit/internal/storage/memory"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func strengthTeam(id int, name string, raw int) domain.Team {
	return domain.Team{
		ID:                  id,
		Name:                name,
		ShortName:           name[:3],
		StrengthOverallHome: raw,
		StrengthOverallAway: raw,
		StrengthAttackHome:  raw,
		StrengthAttackAway:  raw,
		StrengthDefenceHome: raw,
		StrengthDefenceAway: raw,
	}
}

// addPlayer registers a player whose steady history makes the projector
// yield perGame times the position multiplier per gameweek (the stub
// has no fixtures unless a test adds them).
func addPlayer(src *stub.Source, id, teamID int, name string, pos domain.Position, cost, perGame float64, status domain.Availability) {
	src.AddPlayer(domain.Player{
		ID:            id,
		SecondName:    name,
		WebName:       name,
		TeamID:        teamID,
		Position:      pos,
		Cost:          cost,
		Form:          4.0,
		PointsPerGame: perGame,
		Status:        status,
	})
	history := make([]domain.GameweekStat, 5)
	for i := range history {
		history[i] = domain.GameweekStat{Gameweek: i + 1, TotalPoints: int(perGame), Minutes: 90}
	}
	src.AddDetail(&domain.PlayerDetail{PlayerID: id, History: history})
}

// addSquad registers a legal 15-player squad on team 1 with ids
// starting at 100 and returns the ids. Positions come in bootstrap
// order: 2 GK, 5 DEF, 5 MID, 3 FWD.
func addSquad(src *stub.Source, perGame float64) []int {
	layout := []struct {
		pos   domain.Position
		count int
	}{
		{domain.PositionGK, 2},
		{domain.PositionDEF, 5},
		{domain.PositionMID, 5},
		{domain.PositionFWD, 3},
	}

	var ids []int
	id := 100
	for _, l := range layout {
		for i := 0; i < l.count; i++ {
			addPlayer(src, id, 1, "Squad", l.pos, 6.0, perGame, domain.Available)
			ids = append(ids, id)
			id++
		}
	}
	return ids
}

func newTestSource() *stub.Source {
	src := stub.NewSource()
	src.AddTeam(strengthTeam(1, "Arsenal", 1000))
	src.AddTeam(strengthTeam(2, "Villans", 750))
	src.AddGameweek(domain.Gameweek{ID: 2, IsCurrent: true})
	src.AddGameweek(domain.Gameweek{ID: 3, IsNext: true})
	return src
}

func newTestPlanner(src *stub.Source, opts ...Option) *Planner {
	estimator := fixtures.NewEstimator(src)
	projector := projection.NewEngine(src, estimator)
	return NewPlanner(src, projector, estimator, opts...)
}

func scenarioByName(t *testing.T, scenarios []domain.PlanScenario, name string) *domain.PlanScenario {
	t.Helper()
	for i := range scenarios {
		if scenarios[i].Name == name {
			return &scenarios[i]
		}
	}
	t.Fatalf("scenario %q not found in %d scenarios", name, len(scenarios))
	return nil
}

func TestPlan_RanksByNetPoints(t *testing.T) {
	src := newTestSource()
	ids := addSquad(src, 4)

	// One weak midfielder and one strong upgrade outside the squad.
	src.PlayerList[9].PointsPerGame = 2
	src.Details[ids[9]].History = steadyHistory(2)
	addPlayer(src, 200, 2, "Upgrade", domain.PositionMID, 7.0, 6, domain.Available)

	store := memory.NewScenarioStore()
	p := newTestPlanner(src, WithScenarioStore(store))

	state := &domain.TeamState{PlayerIDs: ids, Bank: 2.0, FreeTransfers: 1, Gameweek: 2}
	scenarios, err := p.Plan(context.Background(), state, 5, 5)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	// One free transfer: conservative, single, aggressive, fixture focus.
	if len(scenarios) != 4 {
		t.Fatalf("expected 4 scenarios, got %d", len(scenarios))
	}
	for i := 1; i < len(scenarios); i++ {
		if scenarios[i].NetPoints > scenarios[i-1].NetPoints {
			t.Errorf("scenarios not ranked by net points: %q (%v) after %q (%v)",
				scenarios[i].Name, scenarios[i].NetPoints, scenarios[i-1].Name, scenarios[i-1].NetPoints)
		}
	}

	conservative := scenarioByName(t, scenarios, "Conservative (No Transfers)")
	single := scenarioByName(t, scenarios, "Single Transfer")

	// The upgrade gains (6-2)*1.0*5 = 20 points over the horizon.
	if !almostEqual(single.ExpectedPoints-conservative.ExpectedPoints, 20) {
		t.Errorf("expected single transfer to add 20 points, got %v", single.ExpectedPoints-conservative.ExpectedPoints)
	}
	if len(single.Moves) != 1 || single.Moves[0].PlayerOutID != ids[9] || single.Moves[0].PlayerInID != 200 {
		t.Errorf("unexpected single transfer move: %+v", single.Moves)
	}
	if single.TransferCost != 0 {
		t.Errorf("single transfer must be free, got cost %d", single.TransferCost)
	}

	// A 20-point gain justifies a hit: expected minus 4.
	aggressive := scenarioByName(t, scenarios, "Aggressive (-4 Hit)")
	if aggressive.TransferCost != 4 {
		t.Errorf("expected 4 point hit, got %d", aggressive.TransferCost)
	}
	if !almostEqual(aggressive.NetPoints, aggressive.ExpectedPoints-4) {
		t.Errorf("net points must deduct the hit: %v vs %v", aggressive.NetPoints, aggressive.ExpectedPoints)
	}
	if aggressive.RiskLevel != domain.RiskHigh {
		t.Errorf("expected high risk, got %s", aggressive.RiskLevel)
	}

	if scenarios[0].Name != "Single Transfer" {
		t.Errorf("expected single transfer ranked first, got %q", scenarios[0].Name)
	}
	if scenarios[len(scenarios)-1].Name != "Conservative (No Transfers)" {
		t.Errorf("expected conservative ranked last, got %q", scenarios[len(scenarios)-1].Name)
	}

	// Every ranked scenario is persisted for the current gameweek.
	records, err := store.GetByGameweek(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetByGameweek: %v", err)
	}
	if len(records) != 4 {
		t.Errorf("expected 4 persisted records, got %d", len(records))
	}
}

func steadyHistory(perGame int) []domain.GameweekStat {
	history := make([]domain.GameweekStat, 5)
	for i := range history {
		history[i] = domain.GameweekStat{Gameweek: i + 1, TotalPoints: perGame, Minutes: 90}
	}
	return history
}

func TestPlan_NoUpgradeFallsBackToConservative(t *testing.T) {
	src := newTestSource()
	ids := addSquad(src, 5)

	p := newTestPlanner(src)
	state := &domain.TeamState{PlayerIDs: ids, Bank: 0.5, FreeTransfers: 1, Gameweek: 2}

	scenarios, err := p.Plan(context.Background(), state, 3, 5)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	// Nothing to buy: every scenario collapses to holding the squad.
	first := scenarios[0].NetPoints
	for _, s := range scenarios {
		if !almostEqual(s.NetPoints, first) {
			t.Errorf("expected all scenarios equal with no upgrades, %q differs: %v vs %v", s.Name, s.NetPoints, first)
		}
		if s.TransferCost != 0 {
			t.Errorf("expected no hits, %q costs %d", s.Name, s.TransferCost)
		}
	}
}

func TestPlan_DoubleTransferMakesTwoMoves(t *testing.T) {
	src := newTestSource()
	ids := addSquad(src, 4)

	// Two weak spots with upgrades in different positions.
	src.PlayerList[9].PointsPerGame = 2
	src.Details[ids[9]].History = steadyHistory(2)
	src.PlayerList[12].PointsPerGame = 2
	src.Details[ids[12]].History = steadyHistory(2)
	addPlayer(src, 200, 2, "MidUpgrade", domain.PositionMID, 7.0, 6, domain.Available)
	addPlayer(src, 201, 2, "FwdUpgrade", domain.PositionFWD, 6.5, 5, domain.Available)

	p := newTestPlanner(src)
	state := &domain.TeamState{PlayerIDs: ids, Bank: 2.0, FreeTransfers: 2, Gameweek: 2}

	scenarios, err := p.Plan(context.Background(), state, 5, 5)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	double := scenarioByName(t, scenarios, "Double Transfer")
	if len(double.Moves) != 2 {
		t.Fatalf("expected 2 moves, got %d", len(double.Moves))
	}
	if double.Moves[0].PlayerInID != 200 || double.Moves[1].PlayerInID != 201 {
		t.Errorf("unexpected move targets: %d, %d", double.Moves[0].PlayerInID, double.Moves[1].PlayerInID)
	}
	if double.TransferCost != 0 {
		t.Errorf("two free transfers, got cost %d", double.TransferCost)
	}

	single := scenarioByName(t, scenarios, "Single Transfer")
	if double.NetPoints <= single.NetPoints {
		t.Errorf("double transfer should beat single: %v <= %v", double.NetPoints, single.NetPoints)
	}
	if scenarios[0].Name != "Double Transfer" {
		t.Errorf("expected double transfer ranked first, got %q", scenarios[0].Name)
	}
}

func TestPlan_InvalidSquad(t *testing.T) {
	src := newTestSource()
	addPlayer(src, 10, 1, "Lonely", domain.PositionMID, 8.0, 4, domain.Available)

	p := newTestPlanner(src)
	state := &domain.TeamState{PlayerIDs: []int{10}, Gameweek: 2}
	if _, err := p.Plan(context.Background(), state, 3, 5); err == nil {
		t.Error("expected error for invalid squad")
	}
}

func TestCompare(t *testing.T) {
	scenarios := []domain.PlanScenario{
		{Name: "Hold", NetPoints: 40, RiskLevel: domain.RiskLow},
		{Name: "Swap", NetPoints: 45, RiskLevel: domain.RiskMedium},
		{Name: "Gamble", NetPoints: 38, RiskLevel: domain.RiskHigh},
	}

	c, err := Compare(scenarios)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if c.Best.Name != "Swap" || c.Worst.Name != "Gamble" {
		t.Errorf("unexpected best/worst: %s/%s", c.Best.Name, c.Worst.Name)
	}
	if !almostEqual(c.PointRange, 7) {
		t.Errorf("expected point range 7, got %v", c.PointRange)
	}
	if !strings.HasPrefix(c.Recommendation, "Clear winner") {
		t.Errorf("expected clear winner wording, got %q", c.Recommendation)
	}
}

func TestCompare_CloseMargin(t *testing.T) {
	scenarios := []domain.PlanScenario{
		{Name: "Hold", NetPoints: 44.5, RiskLevel: domain.RiskLow},
		{Name: "Swap", NetPoints: 45, RiskLevel: domain.RiskMedium},
	}

	c, err := Compare(scenarios)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !strings.HasPrefix(c.Recommendation, "Close choice") {
		t.Errorf("expected close choice wording, got %q", c.Recommendation)
	}
}

func TestCompare_Empty(t *testing.T) {
	if _, err := Compare(nil); err != ErrNoScenarios {
		t.Errorf("expected ErrNoScenarios, got %v", err)
	}
}
