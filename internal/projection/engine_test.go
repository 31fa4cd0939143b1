package projection

import (
	"context"
	"errors"
	"math"
	"testing"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/fixtures"
	"fpl-toolkit/internal/fpl"
	"fpl-toolkit/internal/fpl/stub"
	"fpl-toolkit/internal/storage/memory"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// flatTeam builds a club whose six strength ratings all normalize to
// raw/250 on the 1-5 scale.
func flatTeam(id int, name string, raw int) domain.Team {
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

// steadyHistory builds n gameweeks of identical output.
func steadyHistory(n, points, minutes int) []domain.GameweekStat {
	out := make([]domain.GameweekStat, n)
	for i := range out {
		out[i] = domain.GameweekStat{Gameweek: i + 1, TotalPoints: points, Minutes: minutes}
	}
	return out
}

// newTestSource builds a stub with a current gameweek 2, two clubs and
// one available midfielder on team 1.
func newTestSource() *stub.Source {
	src := stub.NewSource()
	src.AddTeam(flatTeam(1, "Arsenal", 1000))
	src.AddTeam(flatTeam(2, "Villans", 750)) // normalizes to 3.0 per rating
	src.AddGameweek(domain.Gameweek{ID: 1, Finished: true})
	src.AddGameweek(domain.Gameweek{ID: 2, IsCurrent: true})
	src.AddGameweek(domain.Gameweek{ID: 3, IsNext: true})
	src.AddPlayer(domain.Player{
		ID:            10,
		FirstName:     "Martin",
		SecondName:    "Odegaard",
		WebName:       "Odegaard",
		TeamID:        1,
		Position:      domain.PositionMID,
		Cost:          8.5,
		Form:          5.0,
		PointsPerGame: 4.5,
		Status:        domain.Available,
	})
	src.AddDetail(&domain.PlayerDetail{
		PlayerID: 10,
		History:  steadyHistory(5, 4, 90),
	})
	return src
}

func newTestEngine(src *stub.Source, opts ...Option) *Engine {
	return NewEngine(src, fixtures.NewEstimator(src), opts...)
}

func TestProject_AwayFixture(t *testing.T) {
	src := newTestSource()
	// Away at team 2: difficulty 3.0+0.3 = 3.3 → multiplier 0.9.
	src.AddFixture(domain.Fixture{ID: 100, Gameweek: 2, HomeTeamID: 2, AwayTeamID: 1})

	e := newTestEngine(src)
	proj, err := e.Project(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	// Base 4.0 points, MID multiplier 1.0, fixture multiplier 0.9.
	if !almostEqual(proj.Points, 3.6) {
		t.Errorf("expected 3.6 points, got %v", proj.Points)
	}
	if !almostEqual(proj.FixtureDifficulty, 3.3) {
		t.Errorf("expected difficulty 3.3, got %v", proj.FixtureDifficulty)
	}
	if proj.IsHome {
		t.Error("expected away fixture")
	}
	if proj.OpponentTeamID != 2 {
		t.Errorf("expected opponent 2, got %d", proj.OpponentTeamID)
	}
	if proj.Minutes != 90 {
		t.Errorf("expected 90 projected minutes, got %d", proj.Minutes)
	}
	if !almostEqual(proj.Confidence, 0.75) {
		t.Errorf("expected confidence 0.75, got %v", proj.Confidence)
	}
	if !almostEqual(proj.Breakdown.Total, proj.Points) {
		t.Errorf("breakdown total %v must equal points %v", proj.Breakdown.Total, proj.Points)
	}
}

func TestProject_HomeBonus(t *testing.T) {
	src := newTestSource()
	// Home against team 2: difficulty 3.0-0.5 = 2.5 → multiplier 1.1,
	// then the 1.1 home bonus.
	src.AddFixture(domain.Fixture{ID: 100, Gameweek: 2, HomeTeamID: 1, AwayTeamID: 2})

	e := newTestEngine(src)
	proj, err := e.Project(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	if !almostEqual(proj.Points, 4.0*1.1*1.1) {
		t.Errorf("expected %v points, got %v", 4.0*1.1*1.1, proj.Points)
	}
	if !proj.IsHome {
		t.Error("expected home fixture")
	}
}

func TestProject_NoFixtureNeutral(t *testing.T) {
	src := newTestSource()

	e := newTestEngine(src)
	proj, err := e.Project(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	// Blank gameweek: no multiplier, neutral difficulty.
	if !almostEqual(proj.Points, 4.0) {
		t.Errorf("expected 4.0 points, got %v", proj.Points)
	}
	if proj.FixtureDifficulty != fixtures.NeutralDifficulty {
		t.Errorf("expected neutral difficulty, got %v", proj.FixtureDifficulty)
	}
	if proj.OpponentTeamID != 0 {
		t.Errorf("expected no opponent, got %d", proj.OpponentTeamID)
	}
}

func TestProject_NoHistoryFallsBackToSeasonRate(t *testing.T) {
	src := newTestSource()
	src.AddDetail(&domain.PlayerDetail{PlayerID: 10}) // wipe history

	e := newTestEngine(src)
	proj, err := e.Project(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	if !almostEqual(proj.Points, 4.5) {
		t.Errorf("expected season ppg 4.5, got %v", proj.Points)
	}
	if proj.Minutes != 90 {
		t.Errorf("expected 90 fallback minutes for available player, got %d", proj.Minutes)
	}
}

func TestProject_TrailingWindowIsFive(t *testing.T) {
	src := newTestSource()
	// Ten gameweeks: first five blanks, last five with 6 points each.
	history := steadyHistory(5, 0, 0)
	history = append(history, steadyHistory(5, 6, 90)...)
	src.AddDetail(&domain.PlayerDetail{PlayerID: 10, History: history})

	e := newTestEngine(src)
	proj, err := e.Project(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	if !almostEqual(proj.Points, 6.0) {
		t.Errorf("expected trailing-five mean 6.0, got %v", proj.Points)
	}
}

func TestProject_AvailabilityDiscounts(t *testing.T) {
	chance := func(v int) *int { return &v }

	cases := []struct {
		name           string
		status         domain.Availability
		chance         *int
		wantPoints     float64
		wantConfidence float64
		wantMinutes    int
	}{
		{"injured", domain.Injured, nil, 4.0 * 0.3, 0.2, 27},
		// A flagged status takes the flat discount even when a chance
		// percentage is published alongside it.
		{"doubtful", domain.Doubtful, chance(75), 4.0 * 0.3, 0.2, 27},
		{"chance 25", domain.Available, chance(25), 4.0 * 0.4, 0.3, 27},
		{"chance 50", domain.Available, chance(50), 4.0 * 0.7, 0.5, 63},
		{"chance 75", domain.Available, chance(75), 4.0 * 0.9, 0.7, 90},
		{"chance 100", domain.Available, chance(100), 4.0, 0.8, 90},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := newTestSource()
			src.PlayerList[0].Status = tc.status
			src.PlayerList[0].ChanceOfPlaying = tc.chance

			e := newTestEngine(src)
			proj, err := e.Project(context.Background(), 10, 2)
			if err != nil {
				t.Fatalf("Project: %v", err)
			}
			if !almostEqual(proj.Points, tc.wantPoints) {
				t.Errorf("expected %v points, got %v", tc.wantPoints, proj.Points)
			}
			if !almostEqual(proj.Confidence, tc.wantConfidence) {
				t.Errorf("expected confidence %v, got %v", tc.wantConfidence, proj.Confidence)
			}
			if proj.Minutes != tc.wantMinutes {
				t.Errorf("expected %d minutes, got %d", tc.wantMinutes, proj.Minutes)
			}
		})
	}
}

func TestProject_UnknownPlayer(t *testing.T) {
	e := newTestEngine(newTestSource())

	if _, err := e.Project(context.Background(), 999, 2); !errors.Is(err, fpl.ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestProjectHorizon_SumsFromCurrentGameweek(t *testing.T) {
	src := newTestSource()
	src.AddFixture(domain.Fixture{ID: 100, Gameweek: 2, HomeTeamID: 2, AwayTeamID: 1})
	src.AddFixture(domain.Fixture{ID: 101, Gameweek: 3, HomeTeamID: 1, AwayTeamID: 2})

	e := newTestEngine(src)
	h, err := e.ProjectHorizon(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("ProjectHorizon: %v", err)
	}

	if len(h.PerGameweek) != 2 {
		t.Fatalf("expected 2 gameweeks, got %d", len(h.PerGameweek))
	}
	want := 3.6 + 4.0*1.1*1.1
	if !almostEqual(h.TotalPoints, want) {
		t.Errorf("expected total %v, got %v", want, h.TotalPoints)
	}
	if !almostEqual(h.AverageConfidence, 0.75) {
		t.Errorf("expected average confidence 0.75, got %v", h.AverageConfidence)
	}
	if h.PerGameweek[0].Gameweek != 2 || h.PerGameweek[1].Gameweek != 3 {
		t.Errorf("expected gameweeks 2,3; got %d,%d", h.PerGameweek[0].Gameweek, h.PerGameweek[1].Gameweek)
	}
}

func TestProjectHorizon_AllFailed(t *testing.T) {
	e := newTestEngine(newTestSource())

	if _, err := e.ProjectHorizon(context.Background(), 999, 3); !errors.Is(err, ErrNoProjections) {
		t.Errorf("expected ErrNoProjections, got %v", err)
	}
}

func TestProjectHorizon_InvalidHorizon(t *testing.T) {
	e := newTestEngine(newTestSource())

	if _, err := e.ProjectHorizon(context.Background(), 10, 0); err == nil {
		t.Error("expected error for zero horizon")
	}
}

func TestProject_RecordsHistory(t *testing.T) {
	src := newTestSource()
	store := memory.NewProjectionHistoryStore()

	e := newTestEngine(src, WithHistoryStore(store))
	if _, err := e.Project(context.Background(), 10, 2); err != nil {
		t.Fatalf("Project: %v", err)
	}

	points, err := store.GetByPlayer(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("GetByPlayer: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 history point, got %d", len(points))
	}
	if !almostEqual(points[0].Points, 4.0) {
		t.Errorf("expected recorded points 4.0, got %v", points[0].Points)
	}
}

func TestProject_RecordsAudit(t *testing.T) {
	src := newTestSource()
	store := memory.NewProjectionStore()

	e := newTestEngine(src, WithProjectionStore(store))
	if _, err := e.Project(context.Background(), 10, 2); err != nil {
		t.Fatalf("Project: %v", err)
	}
	// An immediate re-projection may collide on the same-millisecond
	// record key; Project must stay silent either way.
	if _, err := e.Project(context.Background(), 10, 2); err != nil {
		t.Fatalf("repeat Project: %v", err)
	}

	record, err := store.GetLatest(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if !almostEqual(record.Points, 4.0) {
		t.Errorf("expected recorded points 4.0, got %v", record.Points)
	}
	if record.Gameweek != 2 {
		t.Errorf("expected gameweek 2, got %d", record.Gameweek)
	}
}

func TestTopProjected_FiltersAndSorts(t *testing.T) {
	src := newTestSource()
	src.AddPlayer(domain.Player{
		ID: 11, SecondName: "Cheap", TeamID: 1, Position: domain.PositionMID,
		Cost: 5.0, PointsPerGame: 2.0, Status: domain.Available,
	})
	src.AddDetail(&domain.PlayerDetail{PlayerID: 11, History: steadyHistory(3, 2, 90)})
	src.AddPlayer(domain.Player{
		ID: 12, SecondName: "Keeper", TeamID: 2, Position: domain.PositionGK,
		Cost: 4.5, PointsPerGame: 3.0, Status: domain.Available,
	})
	src.AddDetail(&domain.PlayerDetail{PlayerID: 12, History: steadyHistory(3, 3, 90)})

	e := newTestEngine(src)
	mid := domain.PositionMID

	rankings, err := e.TopProjected(context.Background(), &mid, 0, 1, 10)
	if err != nil {
		t.Fatalf("TopProjected: %v", err)
	}
	if len(rankings) != 2 {
		t.Fatalf("expected 2 midfielders, got %d", len(rankings))
	}
	if rankings[0].Player.ID != 10 {
		t.Errorf("expected player 10 first, got %d", rankings[0].Player.ID)
	}

	cheap, err := e.TopProjected(context.Background(), nil, 5.5, 1, 10)
	if err != nil {
		t.Fatalf("TopProjected cheap: %v", err)
	}
	for _, r := range cheap {
		if r.Player.Cost > 5.5 {
			t.Errorf("cost filter leaked player %d at %v", r.Player.ID, r.Player.Cost)
		}
	}
}

func TestCompare_SkipsFailingPlayers(t *testing.T) {
	src := newTestSource()

	e := newTestEngine(src)
	out, err := e.Compare(context.Background(), []int{10, 999}, 2)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(out) != 1 || out[0].PlayerID != 10 {
		t.Errorf("expected only player 10, got %+v", out)
	}

	if _, err := e.Compare(context.Background(), []int{998, 999}, 2); !errors.Is(err, ErrNoProjections) {
		t.Errorf("expected ErrNoProjections, got %v", err)
	}
}
