package stub

import (
	"context"
	"sort"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/fpl"
)

// Source implements fpl.DataSource for testing. Populate the exported
// fields directly or use the Add helpers.
type Source struct {
	PlayerList   []domain.Player
	TeamList     []domain.Team
	GameweekList []domain.Gameweek
	FixtureList  []domain.Fixture
	Details      map[int]*domain.PlayerDetail
	Live         map[int]map[int]domain.GameweekStat
}

var _ fpl.DataSource = (*Source)(nil)

// NewSource creates an empty stub data source.
func NewSource() *Source {
	return &Source{
		Details: make(map[int]*domain.PlayerDetail),
		Live:    make(map[int]map[int]domain.GameweekStat),
	}
}

// AddPlayer adds a player to the stub bootstrap.
func (s *Source) AddPlayer(p domain.Player) {
	s.PlayerList = append(s.PlayerList, p)
}

// AddTeam adds a club to the stub bootstrap.
func (s *Source) AddTeam(t domain.Team) {
	s.TeamList = append(s.TeamList, t)
}

// AddGameweek adds a gameweek to the stub calendar.
func (s *Source) AddGameweek(gw domain.Gameweek) {
	s.GameweekList = append(s.GameweekList, gw)
}

// AddFixture adds a fixture to the stub schedule.
func (s *Source) AddFixture(f domain.Fixture) {
	s.FixtureList = append(s.FixtureList, f)
}

// AddDetail registers a player's history and upcoming fixtures.
func (s *Source) AddDetail(d *domain.PlayerDetail) {
	s.Details[d.PlayerID] = d
}

// Players returns the stub player list.
func (s *Source) Players(_ context.Context) ([]domain.Player, error) {
	return s.PlayerList, nil
}

// Teams returns the stub club list.
func (s *Source) Teams(_ context.Context) ([]domain.Team, error) {
	return s.TeamList, nil
}

// Gameweeks returns the stub calendar.
func (s *Source) Gameweeks(_ context.Context) ([]domain.Gameweek, error) {
	return s.GameweekList, nil
}

// CurrentGameweek returns the gameweek flagged as current.
func (s *Source) CurrentGameweek(_ context.Context) (*domain.Gameweek, error) {
	for i := range s.GameweekList {
		if s.GameweekList[i].IsCurrent {
			return &s.GameweekList[i], nil
		}
	}
	return nil, fpl.ErrNoCurrentGameweek
}

// NextGameweek returns the gameweek flagged as next.
func (s *Source) NextGameweek(_ context.Context) (*domain.Gameweek, error) {
	for i := range s.GameweekList {
		if s.GameweekList[i].IsNext {
			return &s.GameweekList[i], nil
		}
	}
	return nil, fpl.ErrNoNextGameweek
}

// Fixtures returns stub fixtures for the gameweek, or all of them for
// gameweek 0.
func (s *Source) Fixtures(_ context.Context, gameweek int) ([]domain.Fixture, error) {
	if gameweek == 0 {
		return s.FixtureList, nil
	}
	var out []domain.Fixture
	for _, f := range s.FixtureList {
		if f.Gameweek == gameweek {
			out = append(out, f)
		}
	}
	return out, nil
}

// TeamFixtures returns the next n unfinished stub fixtures for a club.
func (s *Source) TeamFixtures(_ context.Context, teamID, n int) ([]domain.Fixture, error) {
	var out []domain.Fixture
	for _, f := range s.FixtureList {
		if f.Finished || f.Gameweek == 0 || !f.Involves(teamID) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gameweek < out[j].Gameweek })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// PlayerDetail returns the registered detail for a player.
func (s *Source) PlayerDetail(_ context.Context, playerID int) (*domain.PlayerDetail, error) {
	d, ok := s.Details[playerID]
	if !ok {
		return nil, fpl.ErrPlayerNotFound
	}
	return d, nil
}

// LiveGameweek returns registered live stats for a gameweek.
func (s *Source) LiveGameweek(_ context.Context, gameweek int) (map[int]domain.GameweekStat, error) {
	stats, ok := s.Live[gameweek]
	if !ok {
		return map[int]domain.GameweekStat{}, nil
	}
	return stats, nil
}
