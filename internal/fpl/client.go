package fpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://fantasy.premierleague.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultCacheTTL  = time.Hour
	DefaultLiveTTL   = time.Minute
	DefaultUserAgent = "fpl-toolkit/1.0"

	// DefaultRateLimit is requests per second against the upstream API.
	DefaultRateLimit = 2.0
	DefaultRateBurst = 5
)

// Client implements DataSource over the public game API. Responses are
// cached in memory; bootstrap and fixture data use cacheTTL, live
// gameweek data uses the shorter liveTTL. All requests pass through a
// shared rate limiter.
type Client struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	cache     *ttlCache
	cacheTTL  time.Duration
	liveTTL   time.Duration
	userAgent string
}

var _ DataSource = (*Client)(nil)

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithCacheTTL sets the TTL for bootstrap and fixture responses.
func WithCacheTTL(d time.Duration) ClientOption {
	return func(c *Client) {
		c.cacheTTL = d
	}
}

// WithLiveTTL sets the TTL for live gameweek responses.
func WithLiveTTL(d time.Duration) ClientOption {
	return func(c *Client) {
		c.liveTTL = d
	}
}

// WithRateLimit sets the request rate limit and burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		client:    &http.Client{Timeout: DefaultTimeout},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateBurst),
		cache:     newTTLCache(),
		cacheTTL:  DefaultCacheTTL,
		liveTTL:   DefaultLiveTTL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InvalidateCache drops all cached responses. The next call for each
// endpoint hits the network again.
func (c *Client) InvalidateCache() {
	c.cache.Clear()
}

// cached reads key from the cache, recording the hit or miss.
func (c *Client) cached(key string) (interface{}, bool) {
	v, ok := c.cache.Get(key)
	if ok {
		observability.RecordCacheHit()
	} else {
		observability.RecordCacheMiss()
	}
	return v, ok
}

// get fetches path and decodes the JSON body into result.
func (c *Client) get(ctx context.Context, path string, resource string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	err := c.doGet(ctx, path, result)
	observability.RecordAPIFetch(resource, time.Since(start).Seconds(), err)
	return err
}

func (c *Client) doGet(ctx context.Context, path string, result interface{}) error {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrPlayerNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// bootstrap fetches and caches the bootstrap-static payload.
func (c *Client) bootstrap(ctx context.Context) (*rawBootstrap, error) {
	const key = "bootstrap"
	if v, ok := c.cached(key); ok {
		return v.(*rawBootstrap), nil
	}

	var raw rawBootstrap
	if err := c.get(ctx, "/bootstrap-static/", "bootstrap", &raw); err != nil {
		return nil, fmt.Errorf("fetch bootstrap: %w", err)
	}
	c.cache.Set(key, &raw, c.cacheTTL)
	return &raw, nil
}

// Players returns all players from the bootstrap data.
func (c *Client) Players(ctx context.Context) ([]domain.Player, error) {
	raw, err := c.bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	players := make([]domain.Player, 0, len(raw.Elements))
	for _, e := range raw.Elements {
		players = append(players, e.toDomain())
	}
	return players, nil
}

// Teams returns all clubs from the bootstrap data.
func (c *Client) Teams(ctx context.Context) ([]domain.Team, error) {
	raw, err := c.bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	teams := make([]domain.Team, 0, len(raw.Teams))
	for _, t := range raw.Teams {
		teams = append(teams, t.toDomain())
	}
	return teams, nil
}

// Gameweeks returns the full season calendar.
func (c *Client) Gameweeks(ctx context.Context) ([]domain.Gameweek, error) {
	raw, err := c.bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	gws := make([]domain.Gameweek, 0, len(raw.Events))
	for _, e := range raw.Events {
		gws = append(gws, e.toDomain())
	}
	return gws, nil
}

// CurrentGameweek returns the gameweek flagged as current.
func (c *Client) CurrentGameweek(ctx context.Context) (*domain.Gameweek, error) {
	gws, err := c.Gameweeks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range gws {
		if gws[i].IsCurrent {
			return &gws[i], nil
		}
	}
	return nil, ErrNoCurrentGameweek
}

// NextGameweek returns the gameweek flagged as next.
func (c *Client) NextGameweek(ctx context.Context) (*domain.Gameweek, error) {
	gws, err := c.Gameweeks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range gws {
		if gws[i].IsNext {
			return &gws[i], nil
		}
	}
	return nil, ErrNoNextGameweek
}

// Fixtures returns fixtures for the given gameweek, or the whole season
// for gameweek 0.
func (c *Client) Fixtures(ctx context.Context, gameweek int) ([]domain.Fixture, error) {
	path := "/fixtures/"
	key := "fixtures:all"
	if gameweek > 0 {
		path = fmt.Sprintf("/fixtures/?event=%d", gameweek)
		key = fmt.Sprintf("fixtures:%d", gameweek)
	}

	if v, ok := c.cached(key); ok {
		return v.([]domain.Fixture), nil
	}

	var raw []rawFixture
	if err := c.get(ctx, path, "fixtures", &raw); err != nil {
		return nil, fmt.Errorf("fetch fixtures: %w", err)
	}

	fixtures := make([]domain.Fixture, 0, len(raw))
	for _, f := range raw {
		fixtures = append(fixtures, f.toDomain())
	}
	c.cache.Set(key, fixtures, c.cacheTTL)
	return fixtures, nil
}

// TeamFixtures returns the next n unfinished fixtures for a club,
// ordered by gameweek.
func (c *Client) TeamFixtures(ctx context.Context, teamID, n int) ([]domain.Fixture, error) {
	all, err := c.Fixtures(ctx, 0)
	if err != nil {
		return nil, err
	}

	var out []domain.Fixture
	for _, f := range all {
		if f.Finished || f.Gameweek == 0 || !f.Involves(teamID) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gameweek < out[j].Gameweek })

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// PlayerDetail returns a player's per-gameweek history and upcoming
// fixtures from the element-summary endpoint.
func (c *Client) PlayerDetail(ctx context.Context, playerID int) (*domain.PlayerDetail, error) {
	key := fmt.Sprintf("element:%d", playerID)
	if v, ok := c.cached(key); ok {
		return v.(*domain.PlayerDetail), nil
	}

	var raw rawElementSummary
	if err := c.get(ctx, fmt.Sprintf("/element-summary/%d/", playerID), "element_summary", &raw); err != nil {
		return nil, fmt.Errorf("fetch player %d: %w", playerID, err)
	}

	detail := raw.toDomain(playerID)
	c.cache.Set(key, detail, c.cacheTTL)
	return detail, nil
}

// LiveGameweek returns in-progress stats for a gameweek, keyed by
// player id. Cached for a much shorter window than the static data.
func (c *Client) LiveGameweek(ctx context.Context, gameweek int) (map[int]domain.GameweekStat, error) {
	key := fmt.Sprintf("live:%d", gameweek)
	if v, ok := c.cached(key); ok {
		return v.(map[int]domain.GameweekStat), nil
	}

	var raw rawLive
	if err := c.get(ctx, fmt.Sprintf("/event/%d/live/", gameweek), "live", &raw); err != nil {
		return nil, fmt.Errorf("fetch live gameweek %d: %w", gameweek, err)
	}

	stats := make(map[int]domain.GameweekStat, len(raw.Elements))
	for _, e := range raw.Elements {
		stats[e.ID] = domain.GameweekStat{
			Gameweek:    gameweek,
			TotalPoints: e.Stats.TotalPoints,
			Minutes:     e.Stats.Minutes,
			GoalsScored: e.Stats.GoalsScored,
			Assists:     e.Stats.Assists,
			CleanSheets: e.Stats.CleanSheets,
			Bonus:       e.Stats.Bonus,
			BPS:         e.Stats.BPS,
		}
	}
	c.cache.Set(key, stats, c.liveTTL)
	return stats, nil
}
