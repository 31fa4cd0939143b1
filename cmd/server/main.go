// Package main provides the HTTP API server exposing projections,
// fixture analysis, transfer evaluation, scenario planning and squad
// advice over REST, plus Prometheus metrics and health endpoints.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"fpl-toolkit/internal/advisor"
	"fpl-toolkit/internal/config"
	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/fixtures"
	"fpl-toolkit/internal/fpl"
	"fpl-toolkit/internal/metrics"
	"fpl-toolkit/internal/observability"
	"fpl-toolkit/internal/projection"
	"fpl-toolkit/internal/scenario"
	"fpl-toolkit/internal/storage"
	chstore "fpl-toolkit/internal/storage/clickhouse"
	"fpl-toolkit/internal/storage/memory"
	"fpl-toolkit/internal/storage/migrations"
	pgstore "fpl-toolkit/internal/storage/postgres"
	"fpl-toolkit/internal/transfers"
)

// Server wires the analysis engines behind the HTTP API.
type Server struct {
	cfg       *config.Config
	source    fpl.DataSource
	estimator *fixtures.Estimator
	projector *projection.Engine
	transfers *transfers.Engine
	planner   *scenario.Planner
	advisor   *advisor.Advisor
	logger    *log.Logger
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory stores regardless of configured DSNs")
	migrate := flag.Bool("migrate", false, "Run database migrations on startup")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}
	if *useMemory {
		cfg.Storage.PostgresDSN = ""
		cfg.Storage.ClickhouseDSN = ""
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg, *migrate, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	server := newServer(cfg, st, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.mux(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Listening on %s", cfg.Server.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// stores groups the optional persistence layers.
type stores struct {
	scenarios   storage.ScenarioStore
	projections storage.ProjectionStore
	history     storage.ProjectionHistoryStore
}

// newServer builds the engine stack from configuration.
func newServer(cfg *config.Config, st *stores, logger *log.Logger) *Server {
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
	if st.history != nil {
		projOpts = append(projOpts, projection.WithHistoryStore(st.history))
	}
	if st.projections != nil {
		projOpts = append(projOpts, projection.WithProjectionStore(st.projections))
	}
	projector := projection.NewEngine(client, estimator, projOpts...)

	transferEngine := transfers.NewEngine(client, projector)

	plannerOpts := []scenario.Option{scenario.WithLogger(logger)}
	if st.scenarios != nil {
		plannerOpts = append(plannerOpts, scenario.WithScenarioStore(st.scenarios))
	}
	planner := scenario.NewPlanner(client, projector, estimator, plannerOpts...)

	return &Server{
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

// createStores connects the optional persistence layers, optionally
// applying migrations first. Memory stores back any layer without a
// DSN so audit endpoints still work.
func createStores(ctx context.Context, cfg *config.Config, migrate bool, logger *log.Logger) (*stores, func(), error) {
	st := &stores{
		scenarios:   memory.NewScenarioStore(),
		projections: memory.NewProjectionStore(),
		history:     memory.NewProjectionHistoryStore(),
	}
	var cleanups []func()
	fail := func(err error) (*stores, func(), error) {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		return nil, nil, err
	}

	if cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fail(fmt.Errorf("connect to postgres: %w", err))
		}
		cleanups = append(cleanups, pool.Close)
		if migrate {
			logger.Println("Running postgres migrations...")
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fail(fmt.Errorf("postgres migrations: %w", err))
			}
		}
		st.scenarios = pgstore.NewScenarioStore(pool)
		st.projections = pgstore.NewProjectionStore(pool)
	}

	if cfg.Storage.ClickhouseDSN != "" {
		var (
			conn *chstore.Conn
			err  error
		)
		if migrate {
			logger.Println("Running clickhouse migrations...")
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		}
		if err != nil {
			return fail(fmt.Errorf("connect to clickhouse: %w", err))
		}
		cleanups = append(cleanups, func() { conn.Close() })
		st.history = chstore.NewProjectionHistoryStore(conn)
	}

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return st, cleanup, nil
}

// mux builds the route table.
func (s *Server) mux() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("GET /api/players", s.instrument("players_list", s.handlePlayers))
	mux.HandleFunc("GET /api/players/{id}", s.instrument("player_get", s.handlePlayer))
	mux.HandleFunc("GET /api/players/{id}/projection", s.instrument("player_projection", s.handleProjection))
	mux.HandleFunc("GET /api/players/{id}/horizon", s.instrument("player_horizon", s.handleHorizon))
	mux.HandleFunc("GET /api/players/top", s.instrument("players_top", s.handleTopPlayers))
	mux.HandleFunc("GET /api/players/compare", s.instrument("players_compare", s.handleCompare))
	mux.HandleFunc("GET /api/teams/{id}/fixtures", s.instrument("team_fixtures", s.handleTeamFixtures))
	mux.HandleFunc("GET /api/fixtures/rankings", s.instrument("fixture_rankings", s.handleFixtureRankings))
	mux.HandleFunc("GET /api/transfers/analyze", s.instrument("transfer_analyze", s.handleTransferAnalyze))
	mux.HandleFunc("GET /api/transfers/targets", s.instrument("transfer_targets", s.handleTransferTargets))
	mux.HandleFunc("POST /api/team/advise", s.instrument("team_advise", s.handleAdvise))
	mux.HandleFunc("POST /api/scenarios/plan", s.instrument("scenarios_plan", s.handlePlan))
	mux.HandleFunc("POST /api/scenarios/weekly", s.instrument("scenarios_weekly", s.handleWeekly))

	return mux
}

// statusRecorder captures the response code for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request count and latency per route.
func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		observability.RecordHTTPRequest(route, strconv.Itoa(rec.status), time.Since(start).Seconds())
	}
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.source.Players(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	q := r.URL.Query()
	var position *domain.Position
	if raw := q.Get("position"); raw != "" {
		p := domain.Position(strings.ToUpper(raw))
		if !p.IsValid() {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid position %q", raw))
			return
		}
		position = &p
	}
	maxCost := 0.0
	if raw := q.Get("max_cost"); raw != "" {
		var err error
		maxCost, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid max_cost %q", raw))
			return
		}
	}
	search := strings.ToLower(q.Get("search"))

	filtered := players[:0:0]
	for _, p := range players {
		if position != nil && p.Position != *position {
			continue
		}
		if maxCost > 0 && p.Cost > maxCost {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name()), search) &&
			!strings.Contains(strings.ToLower(p.WebName), search) {
			continue
		}
		filtered = append(filtered, p)
	}
	writeJSON(w, filtered)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	players, err := s.source.Players(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	for _, p := range players {
		if p.ID == playerID {
			writeJSON(w, p)
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Errorf("%w: %d", fpl.ErrPlayerNotFound, playerID))
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	gameweek, err := queryInt(r, "gameweek", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if gameweek == 0 {
		current, err := s.source.CurrentGameweek(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		gameweek = current.ID
	}

	proj, err := s.projector.Project(r.Context(), playerID, gameweek)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, proj)
}

func (s *Server) handleHorizon(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	horizon, err := queryInt(r, "n", s.cfg.Planner.Horizon)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	h, err := s.projector.ProjectHorizon(r.Context(), playerID, horizon)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, h)
}

func (s *Server) handleTopPlayers(w http.ResponseWriter, r *http.Request) {
	horizon, err := queryInt(r, "horizon", s.cfg.Planner.Horizon)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var position *domain.Position
	if raw := r.URL.Query().Get("position"); raw != "" {
		p := domain.Position(strings.ToUpper(raw))
		if !p.IsValid() {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid position %q", raw))
			return
		}
		position = &p
	}

	maxCost := 0.0
	if raw := r.URL.Query().Get("max_cost"); raw != "" {
		maxCost, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid max_cost %q", raw))
			return
		}
	}

	rankings, err := s.projector.TopProjected(r.Context(), position, maxCost, horizon, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, rankings)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	horizon, err := queryInt(r, "horizon", s.cfg.Planner.Horizon)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out, err := s.projector.Compare(r.Context(), ids, horizon)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *Server) handleTeamFixtures(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	n, err := queryInt(r, "n", 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	analysis, err := s.estimator.Analyze(r.Context(), teamID, n)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, analysis)
}

func (s *Server) handleFixtureRankings(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rankings, err := s.estimator.Rankings(r.Context(), n)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, rankings)
}

func (s *Server) handleTransferAnalyze(w http.ResponseWriter, r *http.Request) {
	out, err := queryInt(r, "out", 0)
	if err != nil || out == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("out player id is required"))
		return
	}
	in, err := queryInt(r, "in", 0)
	if err != nil || in == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("in player id is required"))
		return
	}
	horizon, err := queryInt(r, "horizon", s.cfg.Planner.Horizon)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	scenarioResult, err := s.transfers.Analyze(r.Context(), out, in, horizon)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, scenarioResult)
}

func (s *Server) handleTransferTargets(w http.ResponseWriter, r *http.Request) {
	out, err := queryInt(r, "out", 0)
	if err != nil || out == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("out player id is required"))
		return
	}
	horizon, err := queryInt(r, "horizon", s.cfg.Planner.Horizon)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := queryInt(r, "limit", 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	maxIncrease := transfers.DefaultMaxCostIncrease
	if raw := r.URL.Query().Get("max_cost_increase"); raw != "" {
		maxIncrease, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid max_cost_increase %q", raw))
			return
		}
	}
	samePosition := r.URL.Query().Get("same_position") != "false"

	targets, err := s.transfers.FindTargets(r.Context(), out, maxIncrease, samePosition, horizon, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, targets)
}

// teamRequest is the JSON body shared by the squad endpoints.
type teamRequest struct {
	PlayerIDs []int   `json:"player_ids"`
	Bank      float64 `json:"bank"`
	// Pointer so an explicit zero survives decoding; absent means one.
	FreeTransfers *int `json:"free_transfers"`
	Horizon       int  `json:"horizon"`
	ScenarioCount int  `json:"scenario_count"`
	Weeks         int  `json:"weeks"`
}

func (s *Server) decodeTeam(r *http.Request) (*domain.TeamState, *teamRequest, error) {
	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, fmt.Errorf("decode request body: %w", err)
	}
	if req.Horizon == 0 {
		req.Horizon = s.cfg.Planner.Horizon
	}
	if req.ScenarioCount == 0 {
		req.ScenarioCount = s.cfg.Planner.ScenarioCount
	}
	if req.Weeks == 0 {
		req.Weeks = s.cfg.Planner.WeeksAhead
	}
	freeTransfers := 1
	if req.FreeTransfers != nil {
		freeTransfers = *req.FreeTransfers
	}

	current, err := s.source.CurrentGameweek(r.Context())
	if err != nil {
		return nil, nil, err
	}

	state := &domain.TeamState{
		PlayerIDs:     req.PlayerIDs,
		Bank:          req.Bank,
		FreeTransfers: freeTransfers,
		Gameweek:      current.ID,
	}
	return state, &req, nil
}

func (s *Server) handleAdvise(w http.ResponseWriter, r *http.Request) {
	state, req, err := s.decodeTeam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	advice, err := s.advisor.Advise(r.Context(), state, req.Horizon)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, advice)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	state, req, err := s.decodeTeam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	scenarios, err := s.planner.Plan(r.Context(), state, req.Horizon, req.ScenarioCount)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	comparison, err := scenario.Compare(scenarios)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"scenarios":  scenarios,
		"comparison": comparison,
	})
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	state, req, err := s.decodeTeam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	plan, err := s.planner.PlanWeekly(r.Context(), state, req.Weeks)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, plan)
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func parseIDList(raw string) ([]int, error) {
	if raw == "" {
		return nil, fmt.Errorf("ids parameter is required")
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
		return nil, fmt.Errorf("ids parameter is required")
	}
	return ids, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing useful left to do.
		return
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// writeEngineError maps engine sentinel errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fpl.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, projection.ErrNoProjections):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, fpl.ErrNoCurrentGameweek), errors.Is(err, fpl.ErrNoNextGameweek):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
