package fpl

import (
	"context"
	"errors"

	"fpl-toolkit/internal/domain"
)

// Sentinel errors returned by data sources.
var (
	// ErrNoCurrentGameweek is returned when no gameweek carries the
	// current flag (pre-season or between seasons).
	ErrNoCurrentGameweek = errors.New("no current gameweek")

	// ErrNoNextGameweek is returned when no gameweek carries the next
	// flag (final gameweek of the season).
	ErrNoNextGameweek = errors.New("no next gameweek")

	// ErrPlayerNotFound is returned when an element id is unknown upstream.
	ErrPlayerNotFound = errors.New("player not found")
)

// DataSource provides read access to the upstream game data. All methods
// return decoded domain snapshots; callers never see raw payloads.
type DataSource interface {
	// Players returns all players from the bootstrap data.
	Players(ctx context.Context) ([]domain.Player, error)

	// Teams returns all clubs from the bootstrap data.
	Teams(ctx context.Context) ([]domain.Team, error)

	// Gameweeks returns the full season calendar.
	Gameweeks(ctx context.Context) ([]domain.Gameweek, error)

	// CurrentGameweek returns the gameweek flagged as current.
	CurrentGameweek(ctx context.Context) (*domain.Gameweek, error)

	// NextGameweek returns the gameweek flagged as next.
	NextGameweek(ctx context.Context) (*domain.Gameweek, error)

	// Fixtures returns fixtures for the given gameweek. Gameweek 0
	// returns the whole season.
	Fixtures(ctx context.Context, gameweek int) ([]domain.Fixture, error)

	// TeamFixtures returns the next n unfinished fixtures for a club,
	// ordered by gameweek. Fewer than n remain near season end.
	TeamFixtures(ctx context.Context, teamID, n int) ([]domain.Fixture, error)

	// PlayerDetail returns a player's per-gameweek history and
	// upcoming fixtures.
	PlayerDetail(ctx context.Context, playerID int) (*domain.PlayerDetail, error)

	// LiveGameweek returns in-progress stats for a gameweek, keyed by
	// player id.
	LiveGameweek(ctx context.Context, gameweek int) (map[int]domain.GameweekStat, error)
}
