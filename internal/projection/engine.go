package projection

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
	"fpl-toolkit/internal/metrics"
	"fpl-toolkit/internal/observability"
	"fpl-toolkit/internal/storage"
)

// ErrNoProjections is returned when every gameweek in a horizon failed
// to project. Callers must check for it before treating a 0-point
// horizon as meaningful.
var ErrNoProjections = errors.New("no gameweeks could be projected")

// Form window and fallback constants.
const (
	formWindow = 5 // trailing gameweeks for the base rate

	fallbackMinutesAvailable   = 90.0
	fallbackMinutesUnavailable = 45.0
)

// positionMultipliers reflect scoring variance by position, not
// average ability.
var positionMultipliers = map[domain.Position]float64{
	domain.PositionGK:  0.9,
	domain.PositionDEF: 0.95,
	domain.PositionMID: 1.0,
	domain.PositionFWD: 1.05,
}

// Engine computes point projections for players. The metrics engine
// and the two stores are optional; a nil metrics engine skips
// enhancement and nil stores skip audit writes.
type Engine struct {
	source    fpl.DataSource
	estimator *fixtures.Estimator
	metrics   *metrics.Engine
	history   storage.ProjectionHistoryStore
	audit     storage.ProjectionStore
	logger    *log.Logger
	now       func() time.Time
}

// Option configures Engine.
type Option func(*Engine)

// WithMetricsEngine enables advanced-metrics enhancement.
func WithMetricsEngine(m *metrics.Engine) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithHistoryStore enables best-effort projection history writes.
func WithHistoryStore(h storage.ProjectionHistoryStore) Option {
	return func(e *Engine) {
		e.history = h
	}
}

// WithProjectionStore enables best-effort projection audit records.
func WithProjectionStore(s storage.ProjectionStore) Option {
	return func(e *Engine) {
		e.audit = s
	}
}

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates a projection engine.
func NewEngine(source fpl.DataSource, estimator *fixtures.Estimator, opts ...Option) *Engine {
	e := &Engine{
		source:    source,
		estimator: estimator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Project computes a single-gameweek projection for a player.
func (e *Engine) Project(ctx context.Context, playerID, gameweek int) (*domain.Projection, error) {
	players, err := e.source.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch players: %w", err)
	}

	var player *domain.Player
	for i := range players {
		if players[i].ID == playerID {
			player = &players[i]
			break
		}
	}
	if player == nil {
		return nil, fpl.ErrPlayerNotFound
	}

	detail, err := e.source.PlayerDetail(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("fetch detail for player %d: %w", playerID, err)
	}

	// Base rate from the trailing window, or season fallbacks.
	basePoints, avgMinutes := baseRate(player, detail.History)

	points := basePoints * positionMultipliers[player.Position]

	// Fixture adjustment for the target gameweek.
	difficulty, opponentID, isHome, found, err := e.fixtureContext(ctx, player.TeamID, gameweek)
	if err != nil {
		return nil, err
	}
	if found {
		points *= fixtureMultiplier(difficulty)
		if isHome {
			points *= 1.1
		}
	}

	// Optional enrichment before the availability discount.
	if e.metrics != nil && found {
		enhanced := e.metrics.Enhance(points, player.Name(), opponentID, player.Position, avgMinutes, metrics.StyleBalanced)
		points = enhanced.Final
	}

	points, confidence := applyAvailability(points, player)
	projectedMinutes := projectedMinutes(avgMinutes, player)

	proj := &domain.Projection{
		PlayerID:          playerID,
		Gameweek:          gameweek,
		Points:            points,
		Minutes:           projectedMinutes,
		Confidence:        confidence,
		FixtureDifficulty: difficulty,
		IsHome:            isHome,
		OpponentTeamID:    opponentID,
		FormFactor:        basePoints,
	}
	proj.Breakdown = Breakdown(points, player, ExpectedMinutes(detail.History, player.Status))

	observability.RecordProjection()
	e.recordHistory(ctx, proj)
	e.recordAudit(ctx, proj)
	return proj, nil
}

// ProjectHorizon sums projections over n consecutive gameweeks starting
// at the current one. Gameweeks that fail to project are skipped; if
// every gameweek fails, ErrNoProjections is returned.
func (e *Engine) ProjectHorizon(ctx context.Context, playerID, n int) (*domain.HorizonProjection, error) {
	if n <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", n)
	}

	current, err := e.source.CurrentGameweek(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current gameweek: %w", err)
	}

	horizon := &domain.HorizonProjection{
		PlayerID: playerID,
		Horizon:  n,
	}

	var confidenceSum float64
	for gw := current.ID; gw < current.ID+n; gw++ {
		proj, err := e.Project(ctx, playerID, gw)
		if err != nil {
			if e.logger != nil {
				e.logger.Printf("skip gameweek %d for player %d: %v", gw, playerID, err)
			}
			continue
		}
		horizon.PerGameweek = append(horizon.PerGameweek, *proj)
		horizon.TotalPoints += proj.Points
		confidenceSum += proj.Confidence
	}

	if len(horizon.PerGameweek) == 0 {
		return nil, ErrNoProjections
	}

	horizon.AveragePoints = horizon.TotalPoints / float64(len(horizon.PerGameweek))
	horizon.AverageConfidence = confidenceSum / float64(len(horizon.PerGameweek))

	observability.RecordHorizon()
	return horizon, nil
}

// PlayerRanking pairs a player with a horizon projection for sorting.
type PlayerRanking struct {
	Player  domain.Player
	Horizon domain.HorizonProjection
}

// TopProjected projects every player matching the filters over the
// horizon and returns the top limit by total points. A nil position
// matches all positions; maxCost 0 means no cost ceiling.
func (e *Engine) TopProjected(ctx context.Context, position *domain.Position, maxCost float64, horizon, limit int) ([]PlayerRanking, error) {
	players, err := e.source.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch players: %w", err)
	}

	var rankings []PlayerRanking
	for _, p := range players {
		if position != nil && p.Position != *position {
			continue
		}
		if maxCost > 0 && p.Cost > maxCost {
			continue
		}
		if !p.Status.IsAvailable() {
			continue
		}

		h, err := e.ProjectHorizon(ctx, p.ID, horizon)
		if err != nil {
			continue
		}
		rankings = append(rankings, PlayerRanking{Player: p, Horizon: *h})
	}

	sort.Slice(rankings, func(i, j int) bool {
		return rankings[i].Horizon.TotalPoints > rankings[j].Horizon.TotalPoints
	})

	if limit > 0 && len(rankings) > limit {
		rankings = rankings[:limit]
	}
	return rankings, nil
}

// Compare projects each given player over the horizon. Players that
// cannot be projected are omitted.
func (e *Engine) Compare(ctx context.Context, playerIDs []int, horizon int) ([]domain.HorizonProjection, error) {
	var out []domain.HorizonProjection
	for _, id := range playerIDs {
		h, err := e.ProjectHorizon(ctx, id, horizon)
		if err != nil {
			if e.logger != nil {
				e.logger.Printf("skip player %d in comparison: %v", id, err)
			}
			continue
		}
		out = append(out, *h)
	}
	if len(out) == 0 {
		return nil, ErrNoProjections
	}
	return out, nil
}

// fixtureContext resolves the player's fixture for the gameweek.
// found is false when the team has no fixture that week; difficulty
// then defaults to neutral.
func (e *Engine) fixtureContext(ctx context.Context, teamID, gameweek int) (difficulty float64, opponentID int, isHome, found bool, err error) {
	fixtureList, err := e.source.Fixtures(ctx, gameweek)
	if err != nil {
		return 0, 0, false, false, fmt.Errorf("fetch fixtures for gameweek %d: %w", gameweek, err)
	}

	for _, f := range fixtureList {
		if !f.Involves(teamID) {
			continue
		}
		opponentID, isHome = f.OpponentOf(teamID)

		teams, err := e.source.Teams(ctx)
		if err != nil {
			return 0, 0, false, false, fmt.Errorf("fetch teams: %w", err)
		}
		for i := range teams {
			if teams[i].ID == opponentID {
				return e.estimator.Score(&teams[i], isHome), opponentID, isHome, true, nil
			}
		}
		break
	}
	return fixtures.NeutralDifficulty, 0, false, false, nil
}

// recordHistory appends a history point if a store is configured.
// Failures are logged, never fatal.
func (e *Engine) recordHistory(ctx context.Context, proj *domain.Projection) {
	if e.history == nil {
		return
	}

	point := &domain.ProjectionHistoryPoint{
		PlayerID:   proj.PlayerID,
		Gameweek:   proj.Gameweek,
		ComputedAt: e.now().UnixMilli(),
		Points:     proj.Points,
		Confidence: proj.Confidence,
	}
	err := e.history.InsertBulk(ctx, []*domain.ProjectionHistoryPoint{point})
	observability.RecordStoreWrite("projection_history", err)
	if err != nil && e.logger != nil {
		e.logger.Printf("record projection history for player %d: %v", proj.PlayerID, err)
	}
}

// recordAudit inserts an audit record if a store is configured.
// Same-millisecond re-projections collide on the record key; the
// earlier record already says everything the duplicate would.
func (e *Engine) recordAudit(ctx context.Context, proj *domain.Projection) {
	if e.audit == nil {
		return
	}

	record := &domain.ProjectionRecord{
		PlayerID:   proj.PlayerID,
		Gameweek:   proj.Gameweek,
		Points:     proj.Points,
		Minutes:    proj.Minutes,
		Confidence: proj.Confidence,
		Difficulty: proj.FixtureDifficulty,
		CreatedAt:  e.now().UnixMilli(),
	}
	err := e.audit.Insert(ctx, record)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return
	}
	observability.RecordStoreWrite("projections", err)
	if err != nil && e.logger != nil {
		e.logger.Printf("record projection audit for player %d: %v", proj.PlayerID, err)
	}
}

// baseRate derives the trailing mean points and minutes from up to the
// last formWindow gameweeks. With no history it falls back to the
// season points-per-game and an availability-based minutes estimate.
func baseRate(player *domain.Player, history []domain.GameweekStat) (points, minutes float64) {
	if len(history) == 0 {
		minutes = fallbackMinutesUnavailable
		if player.Status.IsAvailable() {
			minutes = fallbackMinutesAvailable
		}
		return player.PointsPerGame, minutes
	}

	window := history
	if len(window) > formWindow {
		window = window[len(window)-formWindow:]
	}

	var pointSum, minuteSum float64
	for _, row := range window {
		pointSum += float64(row.TotalPoints)
		minuteSum += float64(row.Minutes)
	}
	n := float64(len(window))
	return pointSum / n, minuteSum / n
}

// fixtureMultiplier converts a difficulty score to a point multiplier.
func fixtureMultiplier(difficulty float64) float64 {
	switch {
	case difficulty <= 2.0:
		return 1.3
	case difficulty <= 3.0:
		return 1.1
	case difficulty <= 4.0:
		return 0.9
	}
	return 0.7
}

// applyAvailability discounts points by availability and returns the
// projection confidence.
func applyAvailability(points float64, player *domain.Player) (float64, float64) {
	if !player.Status.IsAvailable() {
		return points * 0.3, 0.2
	}
	if player.ChanceOfPlaying == nil {
		return points, 0.75
	}

	chance := *player.ChanceOfPlaying
	switch {
	case chance <= 25:
		return points * 0.4, 0.3
	case chance <= 50:
		return points * 0.7, 0.5
	case chance <= 75:
		return points * 0.9, 0.7
	}
	return points, 0.8
}

// projectedMinutes scales the trailing average minutes by the same
// availability tiers used for points.
func projectedMinutes(avgMinutes float64, player *domain.Player) int {
	switch {
	case !player.Status.IsAvailable():
		return int(avgMinutes * 0.3)
	case player.ChanceOfPlaying != nil && *player.ChanceOfPlaying <= 25:
		return int(avgMinutes * 0.3)
	case player.ChanceOfPlaying != nil && *player.ChanceOfPlaying <= 50:
		return int(avgMinutes * 0.7)
	}
	return int(avgMinutes)
}
