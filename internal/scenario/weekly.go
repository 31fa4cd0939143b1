package scenario

import (
	"context"
	"fmt"
	"sort"

	"fpl-toolkit/internal/domain"
)

// Weekly fixture thresholds and per-week move allowance.
const (
	easyFixtureCutoff = 2.0
	hardFixtureCutoff = 4.0
	maxWeeklyMoves    = 2
)

// weekFixture is a club's fixture context for one gameweek. has is
// false on a blank gameweek.
type weekFixture struct {
	difficulty float64
	isHome     bool
	has        bool
}

// PlanWeekly builds a greedy week-by-week transfer schedule. Each week
// squad members facing a hard fixture are flagged, at most
// maxWeeklyMoves of them are swapped for the best same-position player
// with an easier fixture that week, and the squad carries the moves
// forward. The plan does not look ahead; a swap made for one week is
// not revisited.
func (p *Planner) PlanWeekly(ctx context.Context, state *domain.TeamState, weeks int) (*domain.WeeklyPlan, error) {
	if weeks <= 0 {
		return nil, fmt.Errorf("weeks must be positive, got %d", weeks)
	}

	players, byID, err := p.players(ctx)
	if err != nil {
		return nil, err
	}
	if err := state.Validate(byID); err != nil {
		return nil, fmt.Errorf("validate squad: %w", err)
	}

	current, err := p.source.CurrentGameweek(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current gameweek: %w", err)
	}

	teams, err := p.source.Teams(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}
	teamByID := make(map[int]*domain.Team, len(teams))
	for i := range teams {
		teamByID[teams[i].ID] = &teams[i]
	}

	held := make([]int, len(state.PlayerIDs))
	copy(held, state.PlayerIDs)
	squad := make(map[int]bool, len(held))
	for _, id := range held {
		squad[id] = true
	}
	bank := state.Bank

	plan := &domain.WeeklyPlan{}
	for offset := 0; offset < weeks; offset++ {
		gw := current.ID + offset

		byTeam, err := p.weekFixtures(ctx, gw, teamByID)
		if err != nil {
			return nil, err
		}

		step := domain.WeeklyStep{Gameweek: gw}

		// Per-player estimates and hard-fixture flags for this week.
		estimates := make(map[int]float64, len(held))
		type flagged struct {
			id         int
			difficulty float64
		}
		var flags []flagged
		weekTotal := 0.0
		for _, id := range held {
			player := byID[id]
			wf := byTeam[player.TeamID]
			est := weeklyEstimate(player, wf)
			estimates[id] = est
			weekTotal += est
			if wf.has && wf.difficulty >= hardFixtureCutoff {
				flags = append(flags, flagged{id: id, difficulty: wf.difficulty})
			}
		}

		sort.Slice(flags, func(i, j int) bool {
			return flags[i].difficulty > flags[j].difficulty
		})
		if len(flags) > maxWeeklyMoves {
			flags = flags[:maxWeeklyMoves]
		}
		for _, fl := range flags {
			step.FlaggedPlayers = append(step.FlaggedPlayers, fl.id)
		}

		// Greedy swap for each flagged player: the best same-position
		// player with an easier fixture this week, within budget.
		for _, fl := range flags {
			out := byID[fl.id]
			budget := bank + out.Cost

			var in *domain.Player
			bestEst := estimates[fl.id]
			for i := range players {
				candidate := &players[i]
				if squad[candidate.ID] ||
					candidate.Position != out.Position ||
					candidate.Cost > budget ||
					!candidate.Status.IsAvailable() {
					continue
				}
				wf := byTeam[candidate.TeamID]
				if !wf.has || wf.difficulty >= hardFixtureCutoff {
					continue
				}
				if est := weeklyEstimate(candidate, wf); est > bestEst {
					bestEst = est
					in = candidate
				}
			}
			if in == nil {
				continue
			}

			gain := bestEst - estimates[fl.id]
			step.Moves = append(step.Moves, domain.TransferMove{
				PlayerOutID: fl.id,
				PlayerInID:  in.ID,
				Gameweek:    gw,
				Gain:        gain,
			})
			weekTotal += gain

			delete(squad, fl.id)
			squad[in.ID] = true
			for i := range held {
				if held[i] == fl.id {
					held[i] = in.ID
					break
				}
			}
			bank -= in.Cost - out.Cost
		}

		step.EstimatedPoints = weekTotal
		plan.Steps = append(plan.Steps, step)
		plan.TotalTransfers += len(step.Moves)
		plan.TotalPoints += step.EstimatedPoints
	}

	return plan, nil
}

// weekFixtures scores each club's fixture for one gameweek.
func (p *Planner) weekFixtures(ctx context.Context, gameweek int, teamByID map[int]*domain.Team) (map[int]weekFixture, error) {
	fixtureList, err := p.source.Fixtures(ctx, gameweek)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures for gameweek %d: %w", gameweek, err)
	}

	byTeam := make(map[int]weekFixture, len(fixtureList)*2)
	for _, f := range fixtureList {
		home, ok := teamByID[f.HomeTeamID]
		if !ok {
			continue
		}
		away, ok := teamByID[f.AwayTeamID]
		if !ok {
			continue
		}
		byTeam[f.HomeTeamID] = weekFixture{difficulty: p.estimator.Score(away, true), isHome: true, has: true}
		byTeam[f.AwayTeamID] = weekFixture{difficulty: p.estimator.Score(home, false), isHome: false, has: true}
	}
	return byTeam, nil
}

// weeklyEstimate scales a player's season points-per-game by the
// week's fixture. A blank gameweek leaves the rate untouched.
func weeklyEstimate(player *domain.Player, wf weekFixture) float64 {
	if !wf.has {
		return player.PointsPerGame
	}

	mult := 1.0
	switch {
	case wf.difficulty <= easyFixtureCutoff:
		mult = 1.2
	case wf.difficulty >= hardFixtureCutoff:
		mult = 0.8
	}
	if wf.isHome {
		mult *= 1.1
	}
	return player.PointsPerGame * mult
}
