package advisor

import (
	"context"
	"fmt"
	"sort"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/fixtures"
	"fpl-toolkit/internal/fpl"
	"fpl-toolkit/internal/observability"
	"fpl-toolkit/internal/projection"
	"fpl-toolkit/internal/transfers"
)

// Heuristic thresholds for squad advice.
const (
	// lowScoringPPG flags players averaging under this many points.
	lowScoringPPG = 3.0

	// premiumCost marks the price band where premiumPPGFloor applies.
	premiumCost     = 8.0
	premiumPPGFloor = 6.0

	// poorForm flags players whose recent form has collapsed.
	poorForm = 2.0

	// Differential picks: at most this ownership, at least this rate.
	differentialOwnership = 10.0
	differentialPPG       = 4.0
	differentialLimit     = 20

	// minSwingFixtures is how many scored fixtures a run needs before
	// its trend is worth reporting.
	minSwingFixtures = 3

	// topListLimit truncates the advice tables.
	topListLimit = 10

	// suggestionTargets is how many replacements each underperformer
	// gets, and suggestionCostIncrease bounds their price.
	suggestionTargets      = 3
	suggestionCostIncrease = 2.0
)

// Underperformer is a squad member flagged by the advice heuristics.
// Priority counts the issues, with an extra point for premium players
// whose price magnifies the waste.
type Underperformer struct {
	Player   domain.Player
	Issues   []string
	Priority int
}

// Differential is a low-ownership player scoring well. Score divides
// points per game by ownership, so equal scorers rank by obscurity.
type Differential struct {
	Player domain.Player
	Score  float64
}

// Efficiency is points per game per million of price.
type Efficiency struct {
	Player     domain.Player
	Efficiency float64
}

// FixtureSwings splits analyzed clubs by difficulty trend.
type FixtureSwings struct {
	Improving []*fixtures.TeamAnalysis
	Worsening []*fixtures.TeamAnalysis
}

// Recommendation is one actionable line of advice.
type Recommendation struct {
	Type     string // transfer, fixtures or differential
	Priority string // high, medium or low
	Message  string
}

// TransferSuggestion pairs an underperformer with replacement targets.
type TransferSuggestion struct {
	Out     domain.Player
	Issues  []string
	Targets []*domain.TransferScenario
}

// Advice is the full advisory output for a squad.
type Advice struct {
	Summary             string
	Horizon             int
	TotalProjected      float64 // summed squad horizon projections
	Underperformers     []Underperformer
	FixtureSwings       FixtureSwings
	Differentials       []Differential
	CostEfficiency      []Efficiency
	TransferSuggestions []TransferSuggestion
	Recommendations     []Recommendation
}

// Summarizer turns advice into a prose summary. The default is a
// template; richer implementations can be swapped in.
type Summarizer interface {
	Summarize(a *Advice) string
}

// Advisor combines the analysis engines into squad-level advice.
type Advisor struct {
	source     fpl.DataSource
	projector  *projection.Engine
	transfers  *transfers.Engine
	estimator  *fixtures.Estimator
	summarizer Summarizer
}

// Option configures Advisor.
type Option func(*Advisor)

// WithSummarizer replaces the template summarizer.
func WithSummarizer(s Summarizer) Option {
	return func(a *Advisor) {
		a.summarizer = s
	}
}

// NewAdvisor creates an advisor.
func NewAdvisor(source fpl.DataSource, projector *projection.Engine, transferEngine *transfers.Engine, estimator *fixtures.Estimator, opts ...Option) *Advisor {
	a := &Advisor{
		source:     source,
		projector:  projector,
		transfers:  transferEngine,
		estimator:  estimator,
		summarizer: TemplateSummarizer{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Underperformers flags players failing any of the scoring, form,
// price or availability heuristics, highest priority first.
func (a *Advisor) Underperformers(players []domain.Player) []Underperformer {
	var out []Underperformer
	for _, p := range players {
		var issues []string

		if p.PointsPerGame < lowScoringPPG {
			issues = append(issues, fmt.Sprintf("low average of %.1f points per game", p.PointsPerGame))
		}
		if p.Cost >= premiumCost && p.PointsPerGame < premiumPPGFloor {
			issues = append(issues, fmt.Sprintf("premium underperformer at %.1fm", p.Cost))
		}
		if p.Form < poorForm {
			issues = append(issues, fmt.Sprintf("poor recent form of %.1f", p.Form))
		}
		if !p.Status.IsAvailable() {
			issues = append(issues, fmt.Sprintf("status is %s", p.Status))
		}

		if len(issues) == 0 {
			continue
		}
		priority := len(issues)
		if p.Cost >= premiumCost {
			priority++
		}
		out = append(out, Underperformer{Player: p, Issues: issues, Priority: priority})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Differentials finds available low-ownership players with a strong
// scoring rate, best score first, capped at differentialLimit.
func (a *Advisor) Differentials(ctx context.Context) ([]Differential, error) {
	players, err := a.source.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch players: %w", err)
	}

	var out []Differential
	for _, p := range players {
		if p.SelectedByPercent > differentialOwnership ||
			p.PointsPerGame < differentialPPG ||
			!p.Status.IsAvailable() {
			continue
		}
		ownership := p.SelectedByPercent
		if ownership < 1.0 {
			ownership = 1.0
		}
		out = append(out, Differential{Player: p, Score: p.PointsPerGame / ownership})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > differentialLimit {
		out = out[:differentialLimit]
	}
	return out, nil
}

// CostEfficiency ranks players by points per game per million. Players
// without a price are skipped.
func (a *Advisor) CostEfficiency(players []domain.Player) []Efficiency {
	var out []Efficiency
	for _, p := range players {
		if p.Cost <= 0 {
			continue
		}
		out = append(out, Efficiency{Player: p, Efficiency: p.PointsPerGame / p.Cost})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Efficiency > out[j].Efficiency
	})
	return out
}

// FixtureSwings analyzes each club's run over the horizon and splits
// those with a clear trend. Runs shorter than minSwingFixtures stay
// unreported.
func (a *Advisor) FixtureSwings(ctx context.Context, teamIDs []int, horizon int) (*FixtureSwings, error) {
	swings := &FixtureSwings{}
	for _, teamID := range teamIDs {
		analysis, err := a.estimator.Analyze(ctx, teamID, horizon)
		if err != nil {
			return nil, fmt.Errorf("analyze team %d: %w", teamID, err)
		}
		if len(analysis.Fixtures) < minSwingFixtures {
			continue
		}

		switch analysis.Trend {
		case fixtures.TrendGettingEasier:
			swings.Improving = append(swings.Improving, analysis)
		case fixtures.TrendGettingHarder:
			swings.Worsening = append(swings.Worsening, analysis)
		}
	}
	return swings, nil
}

// Advise runs every analysis against the squad and compiles the
// result, including a prose summary.
func (a *Advisor) Advise(ctx context.Context, state *domain.TeamState, horizon int) (*Advice, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	players, err := a.source.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch players: %w", err)
	}
	byID := make(map[int]*domain.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}
	if err := state.Validate(byID); err != nil {
		return nil, fmt.Errorf("validate squad: %w", err)
	}

	squad := make([]domain.Player, 0, len(state.PlayerIDs))
	teamSet := make(map[int]bool)
	for _, id := range state.PlayerIDs {
		squad = append(squad, *byID[id])
		teamSet[byID[id].TeamID] = true
	}
	teamIDs := make([]int, 0, len(teamSet))
	for id := range teamSet {
		teamIDs = append(teamIDs, id)
	}
	sort.Ints(teamIDs)

	advice := &Advice{Horizon: horizon}

	advice.Underperformers = a.Underperformers(squad)

	swings, err := a.FixtureSwings(ctx, teamIDs, horizon)
	if err != nil {
		return nil, err
	}
	advice.FixtureSwings = *swings

	differentials, err := a.Differentials(ctx)
	if err != nil {
		return nil, err
	}
	if len(differentials) > topListLimit {
		differentials = differentials[:topListLimit]
	}
	advice.Differentials = differentials

	efficiency := a.CostEfficiency(squad)
	if len(efficiency) > topListLimit {
		efficiency = efficiency[:topListLimit]
	}
	advice.CostEfficiency = efficiency

	// Replacement targets for the worst underperformers, one slot per
	// free transfer.
	for i, u := range advice.Underperformers {
		if i >= state.FreeTransfers {
			break
		}
		targets, err := a.transfers.FindTargets(ctx, u.Player.ID, suggestionCostIncrease, true, horizon, suggestionTargets)
		if err != nil || len(targets) == 0 {
			continue
		}
		advice.TransferSuggestions = append(advice.TransferSuggestions, TransferSuggestion{
			Out:     u.Player,
			Issues:  u.Issues,
			Targets: targets,
		})
	}

	for _, id := range state.PlayerIDs {
		h, err := a.projector.ProjectHorizon(ctx, id, horizon)
		if err != nil {
			continue
		}
		advice.TotalProjected += h.TotalPoints
	}

	advice.Recommendations = a.recommendations(advice)
	advice.Summary = a.summarizer.Summarize(advice)

	observability.RecordAdviceGenerated()
	return advice, nil
}

// recommendations distills the analyses into prioritized one-liners.
func (a *Advisor) recommendations(advice *Advice) []Recommendation {
	var out []Recommendation

	if len(advice.Underperformers) > 0 {
		worst := advice.Underperformers[0]
		out = append(out, Recommendation{
			Type:     "transfer",
			Priority: "high",
			Message:  fmt.Sprintf("Consider transferring out %s: %s", worst.Player.Name(), joinIssues(worst.Issues)),
		})
	}

	if len(advice.FixtureSwings.Improving) > 0 {
		best := advice.FixtureSwings.Improving[0]
		out = append(out, Recommendation{
			Type:     "fixtures",
			Priority: "medium",
			Message:  fmt.Sprintf("Target %s players, their fixtures are improving (average difficulty %.1f)", best.TeamName, best.AverageDifficulty),
		})
	}

	if len(advice.Differentials) > 0 {
		pick := advice.Differentials[0]
		out = append(out, Recommendation{
			Type:     "differential",
			Priority: "low",
			Message: fmt.Sprintf("Consider differential pick %s (%.1f%% owned, %.1f points per game)",
				pick.Player.Name(), pick.Player.SelectedByPercent, pick.Player.PointsPerGame),
		})
	}

	return out
}

func joinIssues(issues []string) string {
	out := ""
	for i, issue := range issues {
		if i > 0 {
			out += ", "
		}
		out += issue
	}
	return out
}

// TemplateSummarizer renders a fixed-template prose summary.
type TemplateSummarizer struct{}

var _ Summarizer = TemplateSummarizer{}

// Summarize builds the summary from the advice totals and the top
// transfer suggestion.
func (TemplateSummarizer) Summarize(a *Advice) string {
	perPlayer := 0.0
	if a.TotalProjected > 0 {
		perPlayer = a.TotalProjected / 15.0
	}

	summary := fmt.Sprintf("Projected %.1f points over the next %d gameweeks (%.1f per player).",
		a.TotalProjected, a.Horizon, perPlayer)

	if n := len(a.Underperformers); n > 0 {
		summary += fmt.Sprintf(" %d player(s) need attention.", n)
	} else {
		summary += " The squad looks solid with no major concerns."
	}

	if len(a.TransferSuggestions) > 0 && len(a.TransferSuggestions[0].Targets) > 0 {
		s := a.TransferSuggestions[0]
		best := s.Targets[0]
		summary += fmt.Sprintf(" Top transfer priority: replace %s for a projected %.1f point gain.",
			s.Out.Name(), best.ProjectedGain)
	}

	return summary
}
