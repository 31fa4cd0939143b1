package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/fixtures"
	"fpl-toolkit/internal/fpl"
	"fpl-toolkit/internal/observability"
	"fpl-toolkit/internal/projection"
	"fpl-toolkit/internal/storage"
)

// Search bounds and hit economics.
const (
	// swapCandidateLimit caps replacement candidates considered per
	// outgoing player in the broad scenarios.
	swapCandidateLimit = 20

	// fixtureCandidateLimit caps candidates per outgoing player in the
	// fixture-focused scenario, which draws from a curated pool.
	fixtureCandidateLimit = 10

	// fixtureTeamCount and playersPerFixtureTeam shape the curated pool:
	// the top scorers of the clubs with the easiest short-term runs.
	fixtureTeamCount      = 5
	playersPerFixtureTeam = 3

	// fixtureHorizon is the short window the fixture scenario optimizes.
	fixtureHorizon = 3

	// hitCost is the point penalty for a transfer beyond the free
	// allowance; a swap must gain more than hitWorthGain to justify one.
	hitCost      = 4
	hitWorthGain = 6.0
)

// ErrNoScenarios is returned by Compare when given nothing to rank.
var ErrNoScenarios = errors.New("no scenarios to compare")

// Planner builds and ranks candidate transfer plans for a squad. The
// scenario store is optional; when configured every planned scenario is
// persisted for later audit.
type Planner struct {
	source    fpl.DataSource
	projector *projection.Engine
	estimator *fixtures.Estimator
	store     storage.ScenarioStore
	logger    *log.Logger
	now       func() time.Time
}

// Option configures Planner.
type Option func(*Planner)

// WithScenarioStore enables best-effort scenario persistence.
func WithScenarioStore(s storage.ScenarioStore) Option {
	return func(p *Planner) {
		p.store = s
	}
}

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(l *log.Logger) Option {
	return func(p *Planner) {
		p.logger = l
	}
}

// NewPlanner creates a scenario planner.
func NewPlanner(source fpl.DataSource, projector *projection.Engine, estimator *fixtures.Estimator, opts ...Option) *Planner {
	p := &Planner{
		source:    source,
		projector: projector,
		estimator: estimator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan builds candidate scenarios for the squad over the horizon and
// returns up to scenarioCount of them ranked by net points. The
// conservative scenario is always present; transfer scenarios appear
// when the free transfer allowance permits them.
func (p *Planner) Plan(ctx context.Context, state *domain.TeamState, horizon, scenarioCount int) ([]domain.PlanScenario, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
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

	proj := newProjCache(p.projector)
	baseline := proj.squadTotal(ctx, state.PlayerIDs, horizon)

	squad := make(map[int]bool, len(state.PlayerIDs))
	for _, id := range state.PlayerIDs {
		squad[id] = true
	}

	// The single best swap seeds three scenarios; the projection cache
	// keeps the repeated horizon lookups cheap.
	best := p.bestSwap(ctx, state.PlayerIDs, squad, byID, players, state.Bank, current.ID, swapCandidateLimit, horizon, proj)

	scenarios := []domain.PlanScenario{p.conservative(baseline)}
	if state.FreeTransfers >= 1 {
		scenarios = append(scenarios, p.singleTransfer(best, byID, baseline))
	}
	if state.FreeTransfers >= 2 {
		scenarios = append(scenarios, p.doubleTransfer(ctx, state, best, squad, byID, players, baseline, current.ID, horizon, proj))
	}
	scenarios = append(scenarios, p.aggressive(best, byID, baseline))

	fixture, err := p.fixtureFocus(ctx, state, squad, byID, players, baseline, current.ID, proj)
	if err != nil {
		return nil, err
	}
	scenarios = append(scenarios, fixture)

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].NetPoints > scenarios[j].NetPoints
	})
	if scenarioCount > 0 && len(scenarios) > scenarioCount {
		scenarios = scenarios[:scenarioCount]
	}

	for i := range scenarios {
		observability.RecordScenarioPlanned(scenarios[i].Name)
	}
	p.persist(ctx, scenarios, current.ID)

	return scenarios, nil
}

// Compare ranks a scenario set and summarizes the margin between the
// best and the rest.
func Compare(scenarios []domain.PlanScenario) (*domain.ScenarioComparison, error) {
	if len(scenarios) == 0 {
		return nil, ErrNoScenarios
	}

	ranked := make([]domain.PlanScenario, len(scenarios))
	copy(ranked, scenarios)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].NetPoints > ranked[j].NetPoints
	})

	best := &ranked[0]
	worst := &ranked[len(ranked)-1]

	var recommendation string
	if len(ranked) > 1 {
		margin := best.NetPoints - ranked[1].NetPoints
		if margin < 2 {
			recommendation = fmt.Sprintf("Close choice: %s edges out the field by %.1f points, weigh its %s risk", best.Name, margin, best.RiskLevel)
		} else {
			recommendation = fmt.Sprintf("Clear winner: %s leads by %.1f points (%s risk)", best.Name, margin, best.RiskLevel)
		}
	} else {
		recommendation = fmt.Sprintf("Recommended: %s (%.1f net points, %s risk)", best.Name, best.NetPoints, best.RiskLevel)
	}

	return &domain.ScenarioComparison{
		Best:           best,
		Worst:          worst,
		PointRange:     best.NetPoints - worst.NetPoints,
		Recommendation: recommendation,
	}, nil
}

func (p *Planner) conservative(baseline float64) domain.PlanScenario {
	return domain.PlanScenario{
		Name:           "Conservative (No Transfers)",
		Description:    "Hold the current squad and bank the free transfer",
		ExpectedPoints: baseline,
		NetPoints:      baseline,
		RiskLevel:      domain.RiskLow,
	}
}

func (p *Planner) singleTransfer(best *swap, byID map[int]*domain.Player, baseline float64) domain.PlanScenario {
	if best == nil {
		return p.conservative(baseline)
	}

	expected := baseline + best.move.Gain
	return domain.PlanScenario{
		Name:           "Single Transfer",
		Description:    swapDescription(best, byID),
		Moves:          []domain.TransferMove{best.move},
		ExpectedPoints: expected,
		NetPoints:      expected,
		RiskLevel:      domain.RiskMedium,
	}
}

// doubleTransfer extends the best single swap with the best second swap
// against the post-swap squad and residual budget.
func (p *Planner) doubleTransfer(ctx context.Context, state *domain.TeamState, first *swap, squad map[int]bool, byID map[int]*domain.Player, players []domain.Player, baseline float64, gameweek, horizon int, proj *projCache) domain.PlanScenario {
	if first == nil {
		return p.conservative(baseline)
	}

	held := make([]int, 0, len(state.PlayerIDs))
	postSquad := make(map[int]bool, len(squad))
	for _, id := range state.PlayerIDs {
		if id == first.move.PlayerOutID {
			id = first.move.PlayerInID
		}
		held = append(held, id)
		postSquad[id] = true
	}
	residual := state.Bank - first.costChange

	moves := []domain.TransferMove{first.move}
	expected := baseline + first.move.Gain

	second := p.bestSwap(ctx, held, postSquad, byID, players, residual, gameweek, swapCandidateLimit, horizon, proj)
	if second != nil {
		moves = append(moves, second.move)
		expected += second.move.Gain
	}

	return domain.PlanScenario{
		Name:           "Double Transfer",
		Description:    swapDescription(first, byID) + ", then a second swap if it adds value",
		Moves:          moves,
		ExpectedPoints: expected,
		NetPoints:      expected,
		RiskLevel:      domain.RiskMediumHigh,
	}
}

// aggressive reuses the best swap but prices in a point hit when the
// gain clears the hit threshold.
func (p *Planner) aggressive(best *swap, byID map[int]*domain.Player, baseline float64) domain.PlanScenario {
	if best == nil {
		return p.conservative(baseline)
	}

	expected := baseline + best.move.Gain
	if best.move.Gain > hitWorthGain {
		return domain.PlanScenario{
			Name:           "Aggressive (-4 Hit)",
			Description:    fmt.Sprintf("Take a %d point hit for %s", hitCost, playerName(byID, best.move.PlayerInID)),
			Moves:          []domain.TransferMove{best.move},
			ExpectedPoints: expected,
			TransferCost:   hitCost,
			NetPoints:      expected - float64(hitCost),
			RiskLevel:      domain.RiskHigh,
		}
	}
	return domain.PlanScenario{
		Name:           "Aggressive (Free Transfer)",
		Description:    swapDescription(best, byID),
		Moves:          []domain.TransferMove{best.move},
		ExpectedPoints: expected,
		NetPoints:      expected,
		RiskLevel:      domain.RiskMediumHigh,
	}
}

// fixtureFocus swaps toward the top scorers of the clubs with the
// easiest short-term runs. The swap is chosen on the short window even
// though the scenario total covers the full horizon.
func (p *Planner) fixtureFocus(ctx context.Context, state *domain.TeamState, squad map[int]bool, byID map[int]*domain.Player, players []domain.Player, baseline float64, gameweek int, proj *projCache) (domain.PlanScenario, error) {
	rankings, err := p.estimator.Rankings(ctx, fixtureHorizon)
	if err != nil {
		return domain.PlanScenario{}, fmt.Errorf("rank fixture runs: %w", err)
	}
	if len(rankings) > fixtureTeamCount {
		rankings = rankings[:fixtureTeamCount]
	}

	difficultyByTeam := make(map[int]float64, len(rankings))
	var pool []domain.Player
	for _, analysis := range rankings {
		difficultyByTeam[analysis.TeamID] = analysis.AverageDifficulty

		var clubPlayers []domain.Player
		for _, pl := range players {
			if pl.TeamID == analysis.TeamID && pl.Status.IsAvailable() {
				clubPlayers = append(clubPlayers, pl)
			}
		}
		sort.Slice(clubPlayers, func(i, j int) bool {
			return clubPlayers[i].PointsPerGame > clubPlayers[j].PointsPerGame
		})
		if len(clubPlayers) > playersPerFixtureTeam {
			clubPlayers = clubPlayers[:playersPerFixtureTeam]
		}
		pool = append(pool, clubPlayers...)
	}

	best := p.bestSwap(ctx, state.PlayerIDs, squad, byID, pool, state.Bank, gameweek, fixtureCandidateLimit, fixtureHorizon, proj)
	if best == nil {
		return p.conservative(baseline), nil
	}

	expected := baseline + best.move.Gain
	in := byID[best.move.PlayerInID]
	return domain.PlanScenario{
		Name:           "Fixture Focus",
		Description:    fmt.Sprintf("Target %s for a run averaging %.1f difficulty", in.Name(), difficultyByTeam[in.TeamID]),
		Moves:          []domain.TransferMove{best.move},
		ExpectedPoints: expected,
		NetPoints:      expected,
		RiskLevel:      domain.RiskMedium,
	}, nil
}

// swap is a candidate move with its cost delta.
type swap struct {
	move       domain.TransferMove
	costChange float64
}

// bestSwap finds the single swap with the largest positive projected
// gain. For each held player it considers up to candidateLimit pool
// entries of the same position, within bank plus the outgoing cost,
// skipping unavailable players and current squad members.
func (p *Planner) bestSwap(ctx context.Context, heldIDs []int, squad map[int]bool, byID map[int]*domain.Player, pool []domain.Player, bank float64, gameweek, candidateLimit, horizon int, proj *projCache) *swap {
	var best *swap
	bestGain := 0.0

	for _, outID := range heldIDs {
		out := byID[outID]
		if out == nil {
			continue
		}
		budget := bank + out.Cost
		outTotal := proj.total(ctx, outID, horizon)

		considered := 0
		for i := range pool {
			candidate := &pool[i]
			if squad[candidate.ID] ||
				candidate.Position != out.Position ||
				candidate.Cost > budget ||
				!candidate.Status.IsAvailable() {
				continue
			}
			considered++
			if considered > candidateLimit {
				break
			}

			gain := proj.total(ctx, candidate.ID, horizon) - outTotal
			if gain > bestGain {
				bestGain = gain
				best = &swap{
					move: domain.TransferMove{
						PlayerOutID: outID,
						PlayerInID:  candidate.ID,
						Gameweek:    gameweek,
						Gain:        gain,
					},
					costChange: candidate.Cost - out.Cost,
				}
			}
		}
	}
	return best
}

// persist writes the ranked scenarios for audit. Failures are logged,
// never fatal.
func (p *Planner) persist(ctx context.Context, scenarios []domain.PlanScenario, gameweek int) {
	if p.store == nil {
		return
	}

	createdAt := p.now().UnixMilli()
	for i := range scenarios {
		s := &scenarios[i]
		rec := &domain.ScenarioRecord{
			Name:           s.Name,
			Gameweek:       gameweek,
			TransferCount:  len(s.Moves),
			ExpectedPoints: s.ExpectedPoints,
			TransferCost:   s.TransferCost,
			NetPoints:      s.NetPoints,
			RiskLevel:      s.RiskLevel,
			CreatedAt:      createdAt,
		}
		err := p.store.Insert(ctx, rec)
		observability.RecordStoreWrite("scenarios", err)
		if err != nil && p.logger != nil {
			p.logger.Printf("persist scenario %q for gameweek %d: %v", s.Name, gameweek, err)
		}
	}
}

// players fetches the bootstrap player list and an id index over it.
func (p *Planner) players(ctx context.Context) ([]domain.Player, map[int]*domain.Player, error) {
	players, err := p.source.Players(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch players: %w", err)
	}
	byID := make(map[int]*domain.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}
	return players, byID, nil
}

func playerName(byID map[int]*domain.Player, id int) string {
	if p, ok := byID[id]; ok {
		return p.Name()
	}
	return fmt.Sprintf("player %d", id)
}

func swapDescription(s *swap, byID map[int]*domain.Player) string {
	return fmt.Sprintf("Swap %s for %s", playerName(byID, s.move.PlayerOutID), playerName(byID, s.move.PlayerInID))
}

// projCache memoizes horizon totals within a single planning run. A
// player that fails to project contributes zero, matching the
// skip-and-continue behavior of the projector itself.
type projCache struct {
	projector *projection.Engine
	totals    map[[2]int]float64
}

func newProjCache(projector *projection.Engine) *projCache {
	return &projCache{
		projector: projector,
		totals:    make(map[[2]int]float64),
	}
}

func (c *projCache) total(ctx context.Context, playerID, horizon int) float64 {
	key := [2]int{playerID, horizon}
	if v, ok := c.totals[key]; ok {
		return v
	}
	v := 0.0
	if h, err := c.projector.ProjectHorizon(ctx, playerID, horizon); err == nil {
		v = h.TotalPoints
	}
	c.totals[key] = v
	return v
}

func (c *projCache) squadTotal(ctx context.Context, playerIDs []int, horizon int) float64 {
	var sum float64
	for _, id := range playerIDs {
		sum += c.total(ctx, id, horizon)
	}
	return sum
}
