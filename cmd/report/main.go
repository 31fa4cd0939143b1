// Package main generates the weekly advisory report: a markdown
// summary plus a CSV of planned scenarios, written to an output
// directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fpl-toolkit/internal/advisor"
	"fpl-toolkit/internal/config"
	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/fixtures"
	"fpl-toolkit/internal/fpl"
	"fpl-toolkit/internal/metrics"
	"fpl-toolkit/internal/projection"
	"fpl-toolkit/internal/reporting"
	"fpl-toolkit/internal/scenario"
	"fpl-toolkit/internal/transfers"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	squad := flag.String("team", "", "Comma-separated squad player IDs (required)")
	bank := flag.Float64("bank", 0, "Money in the bank, millions")
	freeTransfers := flag.Int("free-transfers", 1, "Free transfers available")
	horizon := flag.Int("horizon", 0, "Gameweeks to project (0 = configured default)")
	fixedClock := flag.Bool("fixed-clock", false, "Stamp the report with a fixed time for reproducible output")
	flag.Parse()

	ctx := context.Background()

	// Validate flags
	if *squad == "" {
		fmt.Fprintln(os.Stderr, "Error: --team is required (comma-separated player IDs)")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid config: %v\n", err)
		os.Exit(1)
	}
	if *horizon == 0 {
		*horizon = cfg.Planner.Horizon
	}

	ids, err := parseIDList(*squad)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing --team: %v\n", err)
		os.Exit(1)
	}

	// Build engine stack
	client := fpl.NewClient(
		fpl.WithBaseURL(cfg.API.BaseURL),
		fpl.WithTimeout(cfg.API.Timeout),
		fpl.WithCacheTTL(cfg.API.CacheTTL),
		fpl.WithLiveTTL(cfg.API.LiveTTL),
		fpl.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
	)
	estimator := fixtures.NewEstimator(client)

	projOpts := []projection.Option{}
	if cfg.Metrics.ExpectedRatesPath != "" || cfg.Metrics.ZoneWeaknessPath != "" {
		projOpts = append(projOpts, projection.WithMetricsEngine(
			metrics.LoadEngine(cfg.Metrics.ExpectedRatesPath, cfg.Metrics.ZoneWeaknessPath)))
	}
	projector := projection.NewEngine(client, estimator, projOpts...)
	transferEngine := transfers.NewEngine(client, projector)
	planner := scenario.NewPlanner(client, projector, estimator)
	adv := advisor.NewAdvisor(client, projector, transferEngine, estimator)

	current, err := client.CurrentGameweek(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching current gameweek: %v\n", err)
		os.Exit(1)
	}

	state := &domain.TeamState{
		PlayerIDs:     ids,
		Bank:          *bank,
		FreeTransfers: *freeTransfers,
		Gameweek:      current.ID,
	}

	advice, err := adv.Advise(ctx, state, *horizon)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating advice: %v\n", err)
		os.Exit(1)
	}

	scenarios, err := planner.Plan(ctx, state, *horizon, cfg.Planner.ScenarioCount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error planning scenarios: %v\n", err)
		os.Exit(1)
	}

	// Fixed clock keeps the report byte-stable across runs on the same
	// data, which makes it diffable in version control.
	generator := reporting.NewGenerator()
	if *fixedClock {
		fixedTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		generator = generator.WithClock(func() time.Time { return fixedTime })
	}
	report := generator.Generate(advice, scenarios, current.ID)

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	mdPath := filepath.Join(*outputDir, "REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing markdown report: %v\n", err)
		os.Exit(1)
	}

	csvPath := filepath.Join(*outputDir, "SCENARIOS.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Scenarios)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing scenario CSV: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Advisory report generated successfully:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
}

func parseIDList(raw string) ([]int, error) {
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
		return nil, fmt.Errorf("no player ids given")
	}
	return ids, nil
}
