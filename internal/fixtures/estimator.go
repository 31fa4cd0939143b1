package fixtures

import (
	"context"
	"fmt"
	"sort"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/fpl"
)

// Difficulty trend labels over a run of fixtures.
const (
	TrendGettingHarder = "getting_harder"
	TrendGettingEasier = "getting_easier"
	TrendNeutral       = "neutral"
)

// Trend comparison needs at least this many fixtures.
const minTrendFixtures = 3

// NeutralDifficulty is reported when a team has no upcoming fixtures.
const NeutralDifficulty = 3.0

// FixtureDifficulty is one scored fixture from a team's perspective.
type FixtureDifficulty struct {
	FixtureID      int     // upstream fixture id
	Gameweek       int     // event number
	OpponentTeamID int     // opposing club
	OpponentName   string  // opposing club short name
	IsHome         bool    // venue from the team's perspective
	Difficulty     float64 // estimated difficulty in [1, 5]
}

// TeamAnalysis scores a team's upcoming run of fixtures.
type TeamAnalysis struct {
	TeamID            int                 // analyzed club
	TeamName          string              // club name
	Fixtures          []FixtureDifficulty // scored fixtures, by gameweek
	AverageDifficulty float64             // mean of fixture difficulties
	TotalDifficulty   float64             // sum of fixture difficulties
	HomeCount         int                 // home fixtures in the run
	AwayCount         int                 // away fixtures in the run
	Trend             string              // one of the Trend* labels
}

// Estimator scores fixture difficulty from opponent strength ratings.
// It ignores the upstream difficulty hints and derives its own score so
// home advantage and strength changes feed through consistently.
type Estimator struct {
	source fpl.DataSource
}

// NewEstimator creates a new difficulty estimator.
func NewEstimator(source fpl.DataSource) *Estimator {
	return &Estimator{source: source}
}

// Score estimates difficulty of facing opponent at the given venue.
// Base is the mean of the opponent's six strength ratings normalized to
// the 1-5 scale. Home fixtures ease by 0.5, away fixtures harden by
// 0.3; the result stays within [1, 5].
func (e *Estimator) Score(opponent *domain.Team, isHome bool) float64 {
	base := (domain.NormalizeStrength(opponent.StrengthOverallHome) +
		domain.NormalizeStrength(opponent.StrengthOverallAway) +
		domain.NormalizeStrength(opponent.StrengthAttackHome) +
		domain.NormalizeStrength(opponent.StrengthAttackAway) +
		domain.NormalizeStrength(opponent.StrengthDefenceHome) +
		domain.NormalizeStrength(opponent.StrengthDefenceAway)) / 6.0

	if isHome {
		d := base - 0.5
		if d < 1.0 {
			return 1.0
		}
		return d
	}
	d := base + 0.3
	if d > 5.0 {
		return 5.0
	}
	return d
}

// Analyze scores a team's next n fixtures. A team with no remaining
// fixtures gets the neutral average and trend rather than an error.
func (e *Estimator) Analyze(ctx context.Context, teamID, n int) (*TeamAnalysis, error) {
	teams, err := e.source.Teams(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}
	byID := make(map[int]*domain.Team, len(teams))
	for i := range teams {
		byID[teams[i].ID] = &teams[i]
	}

	team, ok := byID[teamID]
	if !ok {
		return nil, fmt.Errorf("unknown team %d", teamID)
	}

	upcoming, err := e.source.TeamFixtures(ctx, teamID, n)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures for team %d: %w", teamID, err)
	}

	analysis := &TeamAnalysis{
		TeamID:   teamID,
		TeamName: team.Name,
		Trend:    TrendNeutral,
	}

	if len(upcoming) == 0 {
		analysis.AverageDifficulty = NeutralDifficulty
		return analysis, nil
	}

	total := 0.0
	for _, f := range upcoming {
		opponentID, isHome := f.OpponentOf(teamID)
		opponent, ok := byID[opponentID]
		if !ok {
			continue
		}
		d := e.Score(opponent, isHome)
		analysis.Fixtures = append(analysis.Fixtures, FixtureDifficulty{
			FixtureID:      f.ID,
			Gameweek:       f.Gameweek,
			OpponentTeamID: opponentID,
			OpponentName:   opponent.ShortName,
			IsHome:         isHome,
			Difficulty:     d,
		})
		if isHome {
			analysis.HomeCount++
		} else {
			analysis.AwayCount++
		}
		total += d
	}

	if len(analysis.Fixtures) == 0 {
		analysis.AverageDifficulty = NeutralDifficulty
		return analysis, nil
	}

	analysis.TotalDifficulty = total
	analysis.AverageDifficulty = total / float64(len(analysis.Fixtures))
	analysis.Trend = trend(analysis.Fixtures)
	return analysis, nil
}

// Rankings analyzes every club over its next n fixtures and returns
// them ordered easiest run first.
func (e *Estimator) Rankings(ctx context.Context, n int) ([]*TeamAnalysis, error) {
	teams, err := e.source.Teams(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}

	out := make([]*TeamAnalysis, 0, len(teams))
	for _, t := range teams {
		a, err := e.Analyze(ctx, t.ID, n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].AverageDifficulty < out[j].AverageDifficulty
	})
	return out, nil
}

// trend compares the first two fixtures against the last two. The run
// must span at least three fixtures to report a direction.
func trend(fixtures []FixtureDifficulty) string {
	if len(fixtures) < minTrendFixtures {
		return TrendNeutral
	}

	early := (fixtures[0].Difficulty + fixtures[1].Difficulty) / 2.0
	late := (fixtures[len(fixtures)-1].Difficulty + fixtures[len(fixtures)-2].Difficulty) / 2.0

	switch {
	case late-early > 0.5:
		return TrendGettingHarder
	case early-late > 0.5:
		return TrendGettingEasier
	}
	return TrendNeutral
}
