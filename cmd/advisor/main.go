// Package main provides the fpl-advisor command line tool. Each
// subcommand exposes one analysis surface: projections, fixture
// difficulty, transfer evaluation, scenario planning and full squad
// advice.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"fpl-toolkit/internal/advisor"
	"fpl-toolkit/internal/config"
	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/fixtures"
	"fpl-toolkit/internal/fpl"
	"fpl-toolkit/internal/metrics"
	"fpl-toolkit/internal/projection"
	"fpl-toolkit/internal/scenario"
	"fpl-toolkit/internal/transfers"
)

const usage = `Usage: fpl-advisor <command> [flags]

Commands:
  project     Project a player's points for one gameweek
  horizon     Project a player over the next N gameweeks
  top         Rank the top projected players
  compare     Compare several players over a horizon
  difficulty  Analyze a team's upcoming fixture run
  rankings    Rank all teams by fixture difficulty
  transfer    Evaluate a single transfer
  targets     Find replacement targets for a player
  evaluate    Evaluate a full squad and flag problems
  advice      Generate full squad advice
  plan        Build and compare transfer scenarios
  weekly      Plan transfers week by week

Run 'fpl-advisor <command> -h' for command flags.`

// app bundles the engine stack shared by every subcommand.
type app struct {
	cfg       *config.Config
	source    fpl.DataSource
	estimator *fixtures.Estimator
	projector *projection.Engine
	transfers *transfers.Engine
	planner   *scenario.Planner
	advisor   *advisor.Advisor
	logger    *log.Logger
	json      bool
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "[advisor] ", log.LstdFlags)

	command := os.Args[1]
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config file (optional)")
	outputJSON := fs.Bool("json", false, "Output as JSON")

	run, ok := commands[command]
	if !ok {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	if err := run(ctx, fs, func() (*app, error) {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		a := newApp(cfg, logger)
		a.json = *outputJSON
		return a, nil
	}); err != nil {
		logger.Fatalf("%s failed: %v", command, err)
	}
}

// commandFunc parses its own flags from fs, builds the app lazily and
// runs the subcommand.
type commandFunc func(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error

var commands = map[string]commandFunc{
	"project":    cmdProject,
	"horizon":    cmdHorizon,
	"top":        cmdTop,
	"compare":    cmdCompare,
	"difficulty": cmdDifficulty,
	"rankings":   cmdRankings,
	"transfer":   cmdTransfer,
	"targets":    cmdTargets,
	"evaluate":   cmdEvaluate,
	"advice":     cmdAdvice,
	"plan":       cmdPlan,
	"weekly":     cmdWeekly,
}

func newApp(cfg *config.Config, logger *log.Logger) *app {
	client := fpl.NewClient(
		fpl.WithBaseURL(cfg.API.BaseURL),
		fpl.WithTimeout(cfg.API.Timeout),
		fpl.WithCacheTTL(cfg.API.CacheTTL),
		fpl.WithLiveTTL(cfg.API.LiveTTL),
		fpl.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
	)
	estimator := fixtures.NewEstimator(client)

	projOpts := []projection.Option{projection.WithLogger(logger)}
	if cfg.Metrics.ExpectedRatesPath != "" || cfg.Metrics.ZoneWeaknessPath != "" {
		projOpts = append(projOpts, projection.WithMetricsEngine(
			metrics.LoadEngine(cfg.Metrics.ExpectedRatesPath, cfg.Metrics.ZoneWeaknessPath)))
	}
	projector := projection.NewEngine(client, estimator, projOpts...)
	transferEngine := transfers.NewEngine(client, projector)
	planner := scenario.NewPlanner(client, projector, estimator, scenario.WithLogger(logger))

	return &app{
		cfg:       cfg,
		source:    client,
		estimator: estimator,
		projector: projector,
		transfers: transferEngine,
		planner:   planner,
		advisor:   advisor.NewAdvisor(client, projector, transferEngine, estimator),
		logger:    logger,
	}
}

// teamState builds a TeamState from the shared squad flags.
func (a *app) teamState(ctx context.Context, squad string, bank float64, freeTransfers int) (*domain.TeamState, error) {
	ids, err := parseIDList(squad)
	if err != nil {
		return nil, err
	}
	current, err := a.source.CurrentGameweek(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.TeamState{
		PlayerIDs:     ids,
		Bank:          bank,
		FreeTransfers: freeTransfers,
		Gameweek:      current.ID,
	}, nil
}

func (a *app) emit(v any, human func()) {
	if a.json {
		output, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(output))
		return
	}
	human()
}

func cmdProject(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	playerID := fs.Int("player", 0, "Player ID to project (required)")
	gameweek := fs.Int("gameweek", 0, "Target gameweek (0 = current)")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}
	if *playerID == 0 {
		return fmt.Errorf("--player is required")
	}

	gw := *gameweek
	if gw == 0 {
		current, err := a.source.CurrentGameweek(ctx)
		if err != nil {
			return err
		}
		gw = current.ID
	}

	proj, err := a.projector.Project(ctx, *playerID, gw)
	if err != nil {
		return err
	}

	a.emit(proj, func() {
		fmt.Println()
		fmt.Println("=== Projection ===")
		fmt.Printf("Player ID:          %d\n", proj.PlayerID)
		fmt.Printf("Gameweek:           %d\n", proj.Gameweek)
		fmt.Printf("Projected Points:   %.2f\n", proj.Points)
		fmt.Printf("Expected Minutes:   %d\n", proj.Minutes)
		fmt.Printf("Confidence:         %.2f\n", proj.Confidence)
		fmt.Printf("Fixture Difficulty: %.1f\n", proj.FixtureDifficulty)
		venue := "away"
		if proj.IsHome {
			venue = "home"
		}
		fmt.Printf("Venue:              %s\n", venue)
		fmt.Println()
		fmt.Println("Breakdown:")
		fmt.Printf("  Appearance:       %.2f\n", proj.Breakdown.Appearance)
		fmt.Printf("  Goals:            %.2f\n", proj.Breakdown.Goals)
		fmt.Printf("  Assists:          %.2f\n", proj.Breakdown.Assists)
		fmt.Printf("  Clean Sheet:      %.2f\n", proj.Breakdown.CleanSheet)
		fmt.Printf("  Bonus:            %.2f\n", proj.Breakdown.Bonus)
	})
	return nil
}

func cmdHorizon(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	playerID := fs.Int("player", 0, "Player ID to project (required)")
	n := fs.Int("n", 0, "Gameweeks to project (0 = configured default)")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}
	if *playerID == 0 {
		return fmt.Errorf("--player is required")
	}
	horizon := *n
	if horizon == 0 {
		horizon = a.cfg.Planner.Horizon
	}

	h, err := a.projector.ProjectHorizon(ctx, *playerID, horizon)
	if err != nil {
		return err
	}

	a.emit(h, func() {
		fmt.Println()
		fmt.Printf("=== Horizon: player %d, next %d gameweeks ===\n", h.PlayerID, h.Horizon)
		for _, p := range h.PerGameweek {
			fmt.Printf("  GW%-3d %6.2f pts  difficulty %.1f  confidence %.2f\n",
				p.Gameweek, p.Points, p.FixtureDifficulty, p.Confidence)
		}
		fmt.Printf("Total:   %.2f\n", h.TotalPoints)
		fmt.Printf("Average: %.2f (confidence %.2f)\n", h.AveragePoints, h.AverageConfidence)
	})
	return nil
}

func cmdTop(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	position := fs.String("position", "", "Filter by position: GK, DEF, MID, FWD")
	maxCost := fs.Float64("max-cost", 0, "Maximum cost in millions (0 = no limit)")
	horizon := fs.Int("horizon", 0, "Gameweeks to project (0 = configured default)")
	limit := fs.Int("limit", 10, "Number of players to list")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}
	if *horizon == 0 {
		*horizon = a.cfg.Planner.Horizon
	}

	var pos *domain.Position
	if *position != "" {
		p := domain.Position(strings.ToUpper(*position))
		if !p.IsValid() {
			return fmt.Errorf("invalid position %q, must be GK, DEF, MID or FWD", *position)
		}
		pos = &p
	}

	rankings, err := a.projector.TopProjected(ctx, pos, *maxCost, *horizon, *limit)
	if err != nil {
		return err
	}

	a.emit(rankings, func() {
		fmt.Println()
		fmt.Printf("=== Top %d projected, next %d gameweeks ===\n", len(rankings), *horizon)
		for i, r := range rankings {
			fmt.Printf("%2d. %-24s %s  £%.1fm  %.2f pts (%.2f/gw)\n",
				i+1, r.Player.Name(), r.Player.Position, r.Player.Cost,
				r.Horizon.TotalPoints, r.Horizon.AveragePoints)
		}
	})
	return nil
}

func cmdCompare(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	players := fs.String("players", "", "Comma-separated player IDs (required)")
	horizon := fs.Int("horizon", 0, "Gameweeks to project (0 = configured default)")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}
	ids, err := parseIDList(*players)
	if err != nil {
		return fmt.Errorf("--players: %w", err)
	}
	if *horizon == 0 {
		*horizon = a.cfg.Planner.Horizon
	}

	projections, err := a.projector.Compare(ctx, ids, *horizon)
	if err != nil {
		return err
	}

	a.emit(projections, func() {
		fmt.Println()
		fmt.Printf("=== Comparison, next %d gameweeks ===\n", *horizon)
		for i, h := range projections {
			fmt.Printf("%2d. player %-6d %.2f pts (%.2f/gw, confidence %.2f)\n",
				i+1, h.PlayerID, h.TotalPoints, h.AveragePoints, h.AverageConfidence)
		}
	})
	return nil
}

func cmdDifficulty(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	teamID := fs.Int("team", 0, "Team ID to analyze (required)")
	n := fs.Int("n", 5, "Number of upcoming fixtures")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}
	if *teamID == 0 {
		return fmt.Errorf("--team is required")
	}

	analysis, err := a.estimator.Analyze(ctx, *teamID, *n)
	if err != nil {
		return err
	}

	a.emit(analysis, func() {
		fmt.Println()
		fmt.Printf("=== Fixtures: %s ===\n", analysis.TeamName)
		for _, f := range analysis.Fixtures {
			venue := "A"
			if f.IsHome {
				venue = "H"
			}
			fmt.Printf("  GW%-3d %s (%s)  difficulty %.1f\n", f.Gameweek, f.OpponentName, venue, f.Difficulty)
		}
		fmt.Printf("Average: %.2f  Trend: %s\n", analysis.AverageDifficulty, analysis.Trend)
	})
	return nil
}

func cmdRankings(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	n := fs.Int("n", 5, "Number of upcoming fixtures per team")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}

	rankings, err := a.estimator.Rankings(ctx, *n)
	if err != nil {
		return err
	}

	a.emit(rankings, func() {
		fmt.Println()
		fmt.Printf("=== Fixture rankings, next %d gameweeks (easiest first) ===\n", *n)
		for i, t := range rankings {
			fmt.Printf("%2d. %-20s avg %.2f  %s\n", i+1, t.TeamName, t.AverageDifficulty, t.Trend)
		}
	})
	return nil
}

func cmdTransfer(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	out := fs.Int("out", 0, "Player ID to transfer out (required)")
	in := fs.Int("in", 0, "Player ID to transfer in (required)")
	horizon := fs.Int("horizon", 0, "Gameweeks to project (0 = configured default)")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}
	if *out == 0 || *in == 0 {
		return fmt.Errorf("--out and --in are required")
	}
	if *horizon == 0 {
		*horizon = a.cfg.Planner.Horizon
	}

	result, err := a.transfers.Analyze(ctx, *out, *in, *horizon)
	if err != nil {
		return err
	}

	a.emit(result, func() {
		printTransferScenario(result)
	})
	return nil
}

func cmdTargets(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	out := fs.Int("out", 0, "Player ID to replace (required)")
	maxIncrease := fs.Float64("max-cost-increase", transfers.DefaultMaxCostIncrease, "Maximum cost increase in millions")
	samePosition := fs.Bool("same-position", true, "Only consider same-position replacements")
	horizon := fs.Int("horizon", 0, "Gameweeks to project (0 = configured default)")
	limit := fs.Int("limit", 5, "Number of targets to list")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}
	if *out == 0 {
		return fmt.Errorf("--out is required")
	}
	if *horizon == 0 {
		*horizon = a.cfg.Planner.Horizon
	}

	targets, err := a.transfers.FindTargets(ctx, *out, *maxIncrease, *samePosition, *horizon, *limit)
	if err != nil {
		return err
	}

	a.emit(targets, func() {
		fmt.Println()
		fmt.Printf("=== Targets for player %d ===\n", *out)
		for i, t := range targets {
			fmt.Printf("%2d. player %-6d gain %+.2f  cost %+.1fm  risk %.2f  %s\n",
				i+1, t.PlayerInID, t.ProjectedGain, t.CostChange, t.RiskScore, t.Recommendation)
		}
	})
	return nil
}

func cmdEvaluate(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	squad := fs.String("team", "", "Comma-separated squad player IDs (required)")
	bank := fs.Float64("bank", 0, "Money in the bank, millions")
	freeTransfers := fs.Int("free-transfers", 1, "Free transfers available")
	horizon := fs.Int("horizon", 0, "Gameweeks to project (0 = configured default)")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}
	state, err := a.teamState(ctx, *squad, *bank, *freeTransfers)
	if err != nil {
		return err
	}
	if *horizon == 0 {
		*horizon = a.cfg.Planner.Horizon
	}

	eval, err := a.transfers.EvaluateTeam(ctx, state, *horizon)
	if err != nil {
		return err
	}

	a.emit(eval, func() {
		fmt.Println()
		fmt.Println("=== Squad Evaluation ===")
		fmt.Printf("Projected total, next %d gameweeks: %.2f\n", eval.Horizon, eval.SquadTotal)
		if len(eval.ProblemPlayers) == 0 {
			fmt.Println("No problem players flagged.")
			return
		}
		fmt.Println()
		fmt.Println("Problem players:")
		for _, p := range eval.ProblemPlayers {
			fmt.Printf("  %s (%s): %s\n", p.Player.Name(), p.Player.Position, strings.Join(p.Issues, "; "))
			for _, t := range p.Targets {
				fmt.Printf("    -> player %d, gain %+.2f (%s)\n", t.PlayerInID, t.ProjectedGain, t.Recommendation)
			}
		}
	})
	return nil
}

func cmdAdvice(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	squad := fs.String("team", "", "Comma-separated squad player IDs (required)")
	bank := fs.Float64("bank", 0, "Money in the bank, millions")
	freeTransfers := fs.Int("free-transfers", 1, "Free transfers available")
	horizon := fs.Int("horizon", 0, "Gameweeks to project (0 = configured default)")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}
	state, err := a.teamState(ctx, *squad, *bank, *freeTransfers)
	if err != nil {
		return err
	}
	if *horizon == 0 {
		*horizon = a.cfg.Planner.Horizon
	}

	advice, err := a.advisor.Advise(ctx, state, *horizon)
	if err != nil {
		return err
	}

	a.emit(advice, func() {
		printAdvice(advice)
	})
	return nil
}

func cmdPlan(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	squad := fs.String("team", "", "Comma-separated squad player IDs (required)")
	bank := fs.Float64("bank", 0, "Money in the bank, millions")
	freeTransfers := fs.Int("free-transfers", 1, "Free transfers available")
	horizon := fs.Int("horizon", 0, "Gameweeks to project (0 = configured default)")
	count := fs.Int("count", 0, "Number of scenarios to keep (0 = configured default)")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}
	state, err := a.teamState(ctx, *squad, *bank, *freeTransfers)
	if err != nil {
		return err
	}
	if *horizon == 0 {
		*horizon = a.cfg.Planner.Horizon
	}
	if *count == 0 {
		*count = a.cfg.Planner.ScenarioCount
	}

	scenarios, err := a.planner.Plan(ctx, state, *horizon, *count)
	if err != nil {
		return err
	}
	comparison, err := scenario.Compare(scenarios)
	if err != nil {
		return err
	}

	a.emit(map[string]any{"scenarios": scenarios, "comparison": comparison}, func() {
		fmt.Println()
		fmt.Printf("=== Scenarios, next %d gameweeks ===\n", *horizon)
		for i, s := range scenarios {
			fmt.Printf("%d. %s\n", i+1, s.Name)
			fmt.Printf("   %s\n", s.Description)
			fmt.Printf("   expected %.1f, hits %d, net %.1f, risk %s\n",
				s.ExpectedPoints, s.TransferCost, s.NetPoints, s.RiskLevel)
			for _, m := range s.Moves {
				fmt.Printf("   out %d -> in %d\n", m.PlayerOutID, m.PlayerInID)
			}
		}
		fmt.Println()
		fmt.Println(comparison.Recommendation)
	})
	return nil
}

func cmdWeekly(ctx context.Context, fs *flag.FlagSet, build func() (*app, error)) error {
	squad := fs.String("team", "", "Comma-separated squad player IDs (required)")
	bank := fs.Float64("bank", 0, "Money in the bank, millions")
	freeTransfers := fs.Int("free-transfers", 1, "Free transfers available")
	weeks := fs.Int("weeks", 0, "Weeks to plan ahead (0 = configured default)")
	fs.Parse(os.Args[2:])

	a, err := build()
	if err != nil {
		return err
	}
	state, err := a.teamState(ctx, *squad, *bank, *freeTransfers)
	if err != nil {
		return err
	}
	if *weeks == 0 {
		*weeks = a.cfg.Planner.WeeksAhead
	}

	plan, err := a.planner.PlanWeekly(ctx, state, *weeks)
	if err != nil {
		return err
	}

	a.emit(plan, func() {
		fmt.Println()
		fmt.Printf("=== Weekly plan, %d weeks ===\n", len(plan.Steps))
		for _, step := range plan.Steps {
			fmt.Printf("GW%d: estimated %.1f pts\n", step.Gameweek, step.EstimatedPoints)
			if len(step.FlaggedPlayers) > 0 {
				fmt.Printf("  flagged: %v\n", step.FlaggedPlayers)
			}
			for _, m := range step.Moves {
				fmt.Printf("  out %d -> in %d\n", m.PlayerOutID, m.PlayerInID)
			}
		}
		fmt.Printf("Total: %d transfers, %.1f estimated points\n", plan.TotalTransfers, plan.TotalPoints)
	})
	return nil
}

func printTransferScenario(s *domain.TransferScenario) {
	fmt.Println()
	fmt.Println("=== Transfer Analysis ===")
	fmt.Printf("Out:            player %d (%.2f pts over %d gameweeks)\n", s.PlayerOutID, s.OutProjection, s.Horizon)
	fmt.Printf("In:             player %d (%.2f pts over %d gameweeks)\n", s.PlayerInID, s.InProjection, s.Horizon)
	fmt.Printf("Projected Gain: %+.2f\n", s.ProjectedGain)
	fmt.Printf("Cost Change:    %+.1fm\n", s.CostChange)
	fmt.Printf("Confidence:     %.2f\n", s.Confidence)
	fmt.Printf("Risk Score:     %.2f\n", s.RiskScore)
	fmt.Printf("Verdict:        %s\n", s.Recommendation)
	if len(s.Reasoning) > 0 {
		fmt.Println()
		fmt.Println("Reasoning:")
		for _, r := range s.Reasoning {
			fmt.Printf("  - %s\n", r)
		}
	}
}

func printAdvice(a *advisor.Advice) {
	fmt.Println()
	fmt.Println("=== Squad Advice ===")
	fmt.Println(a.Summary)
	fmt.Println()
	fmt.Printf("Projected total, next %d gameweeks: %.1f\n", a.Horizon, a.TotalProjected)

	if len(a.Underperformers) > 0 {
		fmt.Println()
		fmt.Println("Underperformers:")
		for _, u := range a.Underperformers {
			fmt.Printf("  %s (%s, priority %d): %s\n",
				u.Player.Name(), u.Player.Position, u.Priority, strings.Join(u.Issues, "; "))
		}
	}

	if len(a.TransferSuggestions) > 0 {
		fmt.Println()
		fmt.Println("Transfer suggestions:")
		for _, s := range a.TransferSuggestions {
			fmt.Printf("  Out: %s\n", s.Out.Name())
			for _, t := range s.Targets {
				fmt.Printf("    -> player %d, gain %+.2f (%s)\n", t.PlayerInID, t.ProjectedGain, t.Recommendation)
			}
		}
	}

	if len(a.Differentials) > 0 {
		fmt.Println()
		fmt.Println("Differentials:")
		for _, d := range a.Differentials {
			fmt.Printf("  %s: %.1f%% owned, %.1f ppg (score %.2f)\n",
				d.Player.Name(), d.Player.SelectedByPercent, d.Player.PointsPerGame, d.Score)
		}
	}

	if len(a.Recommendations) > 0 {
		fmt.Println()
		fmt.Println("Recommendations:")
		for _, r := range a.Recommendations {
			fmt.Printf("  [%s/%s] %s\n", r.Type, r.Priority, r.Message)
		}
	}
}

func parseIDList(raw string) ([]int, error) {
	if raw == "" {
		return nil, fmt.Errorf("player id list is required")
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("player id list is required")
	}
	return ids, nil
}
