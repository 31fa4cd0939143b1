package transfers

import (
	"context"
	"fmt"
	"sort"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/fpl"
	"fpl-toolkit/internal/observability"
	"fpl-toolkit/internal/projection"
)

// Default search bounds.
const (
	// DefaultMaxCostIncrease bounds replacement cost when suggesting
	// fixes for problem players.
	DefaultMaxCostIncrease = 2.0

	// targetsPerProblem is how many replacements each problem player
	// gets in a team evaluation.
	targetsPerProblem = 3
)

// Engine evaluates candidate transfers against projections.
type Engine struct {
	source    fpl.DataSource
	projector *projection.Engine
}

// NewEngine creates a transfer engine.
func NewEngine(source fpl.DataSource, projector *projection.Engine) *Engine {
	return &Engine{source: source, projector: projector}
}

// Analyze evaluates swapping playerOut for playerIn over the horizon.
func (e *Engine) Analyze(ctx context.Context, playerOutID, playerInID, horizon int) (*domain.TransferScenario, error) {
	players, err := e.playerIndex(ctx)
	if err != nil {
		return nil, err
	}

	out, ok := players[playerOutID]
	if !ok {
		return nil, fmt.Errorf("outgoing player %d: %w", playerOutID, fpl.ErrPlayerNotFound)
	}
	in, ok := players[playerInID]
	if !ok {
		return nil, fmt.Errorf("incoming player %d: %w", playerInID, fpl.ErrPlayerNotFound)
	}

	outHorizon, err := e.projector.ProjectHorizon(ctx, playerOutID, horizon)
	if err != nil {
		return nil, fmt.Errorf("project outgoing player %d: %w", playerOutID, err)
	}
	inHorizon, err := e.projector.ProjectHorizon(ctx, playerInID, horizon)
	if err != nil {
		return nil, fmt.Errorf("project incoming player %d: %w", playerInID, err)
	}

	current, err := e.source.CurrentGameweek(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current gameweek: %w", err)
	}

	scenario := &domain.TransferScenario{
		PlayerOutID:   playerOutID,
		PlayerInID:    playerInID,
		Gameweek:      current.ID,
		Horizon:       horizon,
		OutProjection: outHorizon.TotalPoints,
		InProjection:  inHorizon.TotalPoints,
		ProjectedGain: inHorizon.TotalPoints - outHorizon.TotalPoints,
		CostChange:    in.Cost - out.Cost,
		Confidence:    (outHorizon.AverageConfidence + inHorizon.AverageConfidence) / 2.0,
	}
	scenario.RiskScore, scenario.Reasoning = riskScore(out, in, scenario)
	scenario.Recommendation = recommend(scenario.ProjectedGain, scenario.RiskScore)

	observability.RecordTransferAnalyzed()
	return scenario, nil
}

// FindTargets evaluates replacements for a player and returns the top
// limit by projected gain. Candidates are bounded by cost (outgoing
// cost plus maxCostIncrease), availability, and optionally position.
func (e *Engine) FindTargets(ctx context.Context, playerOutID int, maxCostIncrease float64, samePositionOnly bool, horizon, limit int) ([]*domain.TransferScenario, error) {
	players, err := e.source.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch players: %w", err)
	}

	var out *domain.Player
	for i := range players {
		if players[i].ID == playerOutID {
			out = &players[i]
			break
		}
	}
	if out == nil {
		return nil, fmt.Errorf("outgoing player %d: %w", playerOutID, fpl.ErrPlayerNotFound)
	}

	costCeiling := out.Cost + maxCostIncrease

	var scenarios []*domain.TransferScenario
	for _, candidate := range players {
		if candidate.ID == playerOutID {
			continue
		}
		if samePositionOnly && candidate.Position != out.Position {
			continue
		}
		if candidate.Cost > costCeiling {
			continue
		}
		if !candidate.Status.IsAvailable() {
			continue
		}

		scenario, err := e.Analyze(ctx, playerOutID, candidate.ID, horizon)
		if err != nil {
			continue
		}
		scenarios = append(scenarios, scenario)
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].ProjectedGain > scenarios[j].ProjectedGain
	})

	if limit > 0 && len(scenarios) > limit {
		scenarios = scenarios[:limit]
	}
	return scenarios, nil
}

// TransferPair names one out/in swap of a multi-transfer plan.
type TransferPair struct {
	OutID int
	InID  int
}

// MultiTransferAnalysis aggregates several simultaneous transfers.
type MultiTransferAnalysis struct {
	Scenarios         []*domain.TransferScenario
	TotalGain         float64
	TotalCostChange   float64
	AverageConfidence float64
	AverageRisk       float64
	Recommendation    domain.Recommendation
}

// AnalyzeMultiple evaluates a set of simultaneous transfers. The
// combined verdict uses the summed gain against the mean risk, so one
// risky move can drag down an otherwise solid plan.
func (e *Engine) AnalyzeMultiple(ctx context.Context, pairs []TransferPair, horizon int) (*MultiTransferAnalysis, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no transfers to analyze")
	}

	result := &MultiTransferAnalysis{}
	var confidenceSum, riskSum float64
	for _, pair := range pairs {
		scenario, err := e.Analyze(ctx, pair.OutID, pair.InID, horizon)
		if err != nil {
			return nil, fmt.Errorf("analyze transfer %d -> %d: %w", pair.OutID, pair.InID, err)
		}
		result.Scenarios = append(result.Scenarios, scenario)
		result.TotalGain += scenario.ProjectedGain
		result.TotalCostChange += scenario.CostChange
		confidenceSum += scenario.Confidence
		riskSum += scenario.RiskScore
	}

	n := float64(len(result.Scenarios))
	result.AverageConfidence = confidenceSum / n
	result.AverageRisk = riskSum / n
	result.Recommendation = recommend(result.TotalGain, result.AverageRisk)
	return result, nil
}

// ProblemPlayer is a squad member flagged for replacement with its
// suggested targets.
type ProblemPlayer struct {
	Player     domain.Player
	Projection domain.HorizonProjection
	Issues     []string
	Targets    []*domain.TransferScenario
}

// TeamEvaluation is the team-wide advisory result.
type TeamEvaluation struct {
	Horizon        int
	SquadTotal     float64 // summed horizon projections of the squad
	ProblemPlayers []ProblemPlayer
}

// EvaluateTeam projects every held player, flags problem players and
// suggests replacements for as many of them as there are free
// transfers.
func (e *Engine) EvaluateTeam(ctx context.Context, state *domain.TeamState, horizon int) (*TeamEvaluation, error) {
	players, err := e.playerIndex(ctx)
	if err != nil {
		return nil, err
	}
	if err := state.Validate(players); err != nil {
		return nil, fmt.Errorf("validate squad: %w", err)
	}

	eval := &TeamEvaluation{Horizon: horizon}

	var problems []ProblemPlayer
	for _, id := range state.PlayerIDs {
		player := players[id]

		h, err := e.projector.ProjectHorizon(ctx, id, horizon)
		if err != nil {
			// An unprojectable squad member is itself a problem.
			problems = append(problems, ProblemPlayer{
				Player: *player,
				Issues: []string{"no projection available"},
			})
			continue
		}
		eval.SquadTotal += h.TotalPoints

		issues := problemIssues(player, h, horizon)
		if len(issues) > 0 {
			problems = append(problems, ProblemPlayer{
				Player:     *player,
				Projection: *h,
				Issues:     issues,
			})
		}
	}

	// Worst projection first; suggestions are bounded by free transfers.
	sort.Slice(problems, func(i, j int) bool {
		return problems[i].Projection.TotalPoints < problems[j].Projection.TotalPoints
	})
	if state.FreeTransfers >= 0 && len(problems) > state.FreeTransfers {
		problems = problems[:state.FreeTransfers]
	}

	for i := range problems {
		targets, err := e.FindTargets(ctx, problems[i].Player.ID, DefaultMaxCostIncrease, true, horizon, targetsPerProblem)
		if err != nil {
			continue
		}
		problems[i].Targets = targets
	}
	eval.ProblemPlayers = problems

	return eval, nil
}

// playerIndex fetches players keyed by id.
func (e *Engine) playerIndex(ctx context.Context) (map[int]*domain.Player, error) {
	players, err := e.source.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch players: %w", err)
	}
	byID := make(map[int]*domain.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}
	return byID, nil
}

// problemIssues lists why a squad member needs replacing, if anything.
func problemIssues(player *domain.Player, h *domain.HorizonProjection, horizon int) []string {
	var issues []string
	if !player.Status.IsAvailable() {
		issues = append(issues, fmt.Sprintf("status is %s", player.Status))
	}
	if h.TotalPoints < 2.0*float64(horizon) {
		issues = append(issues, fmt.Sprintf("projected only %.1f points over %d gameweeks", h.TotalPoints, horizon))
	}
	if player.Form < 2.0 {
		issues = append(issues, fmt.Sprintf("poor form of %.1f", player.Form))
	}
	return issues
}

// riskScore accumulates weighted risk flags, capped at 1.0, along with
// the reasoning behind each flag.
func riskScore(out, in *domain.Player, s *domain.TransferScenario) (float64, []string) {
	risk := 0.0
	var reasons []string

	if s.CostChange > 1.0 {
		risk += 0.2
		reasons = append(reasons, fmt.Sprintf("significant cost increase of %.1fm", s.CostChange))
	} else if s.CostChange > 0.5 {
		risk += 0.1
		reasons = append(reasons, fmt.Sprintf("moderate cost increase of %.1fm", s.CostChange))
	}

	if in.Form < 3.0 {
		risk += 0.2
		reasons = append(reasons, fmt.Sprintf("%s is in poor form (%.1f)", in.Name(), in.Form))
	} else if out.Form > 5.0 {
		risk += 0.15
		reasons = append(reasons, fmt.Sprintf("selling %s while in form (%.1f)", out.Name(), out.Form))
	}

	if out.SelectedByPercent > 20 && in.SelectedByPercent < 5 {
		risk += 0.1
		reasons = append(reasons, fmt.Sprintf("moving from a %.1f%% owned player to a %.1f%% differential", out.SelectedByPercent, in.SelectedByPercent))
	}

	if !in.Status.IsAvailable() {
		risk += 0.3
		reasons = append(reasons, fmt.Sprintf("%s is %s", in.Name(), in.Status))
	}

	if risk > 1.0 {
		risk = 1.0
	}

	reasons = append(reasons, fmt.Sprintf("projected gain of %.1f points over %d gameweeks", s.ProjectedGain, s.Horizon))
	return risk, reasons
}

// recommend maps gain and risk to a verdict tier. Tiers are checked in
// priority order.
func recommend(gain, risk float64) domain.Recommendation {
	switch {
	case gain > 1.0 && risk < 0.5:
		return domain.StronglyRecommended
	case gain > 0.5 && risk < 0.7:
		return domain.Recommended
	case gain > 0 && risk < 0.3:
		return domain.Consider
	case gain >= -0.5 && gain <= 0.5:
		return domain.Neutral
	}
	return domain.NotRecommended
}
