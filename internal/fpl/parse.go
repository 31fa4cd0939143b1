package fpl

import (
	"strconv"
	"time"

	"fpl-toolkit/internal/domain"
)

// Raw payload shapes for the upstream JSON. Numeric-looking fields that
// the upstream serves as strings ("form", "points_per_game",
// "selected_by_percent") stay strings here and go through parseFloat.

type rawBootstrap struct {
	Events   []rawEvent   `json:"events"`
	Teams    []rawTeam    `json:"teams"`
	Elements []rawElement `json:"elements"`
}

type rawEvent struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DeadlineTime string `json:"deadline_time"`
	IsCurrent    bool   `json:"is_current"`
	IsNext       bool   `json:"is_next"`
	Finished     bool   `json:"finished"`
}

type rawTeam struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	ShortName           string `json:"short_name"`
	StrengthOverallHome int    `json:"strength_overall_home"`
	StrengthOverallAway int    `json:"strength_overall_away"`
	StrengthAttackHome  int    `json:"strength_attack_home"`
	StrengthAttackAway  int    `json:"strength_attack_away"`
	StrengthDefenceHome int    `json:"strength_defence_home"`
	StrengthDefenceAway int    `json:"strength_defence_away"`
}

type rawElement struct {
	ID                       int    `json:"id"`
	FirstName                string `json:"first_name"`
	SecondName               string `json:"second_name"`
	WebName                  string `json:"web_name"`
	Team                     int    `json:"team"`
	ElementType              int    `json:"element_type"`
	NowCost                  int    `json:"now_cost"`
	TotalPoints              int    `json:"total_points"`
	Minutes                  int    `json:"minutes"`
	GoalsScored              int    `json:"goals_scored"`
	Assists                  int    `json:"assists"`
	CleanSheets              int    `json:"clean_sheets"`
	Bonus                    int    `json:"bonus"`
	YellowCards              int    `json:"yellow_cards"`
	RedCards                 int    `json:"red_cards"`
	Form                     string `json:"form"`
	PointsPerGame            string `json:"points_per_game"`
	SelectedByPercent        string `json:"selected_by_percent"`
	Status                   string `json:"status"`
	ChanceOfPlayingNextRound *int   `json:"chance_of_playing_next_round"`
}

type rawFixture struct {
	ID              int    `json:"id"`
	Event           *int   `json:"event"`
	TeamH           int    `json:"team_h"`
	TeamA           int    `json:"team_a"`
	TeamHDifficulty int    `json:"team_h_difficulty"`
	TeamADifficulty int    `json:"team_a_difficulty"`
	KickoffTime     string `json:"kickoff_time"`
	Finished        bool   `json:"finished"`
}

type rawElementSummary struct {
	History  []rawHistoryRow      `json:"history"`
	Fixtures []rawUpcomingFixture `json:"fixtures"`
}

type rawHistoryRow struct {
	Round       int `json:"round"`
	TotalPoints int `json:"total_points"`
	Minutes     int `json:"minutes"`
	GoalsScored int `json:"goals_scored"`
	Assists     int `json:"assists"`
	CleanSheets int `json:"clean_sheets"`
	Bonus       int `json:"bonus"`
	BPS         int `json:"bps"`
}

type rawUpcomingFixture struct {
	Event      *int `json:"event"`
	TeamH      int  `json:"team_h"`
	TeamA      int  `json:"team_a"`
	IsHome     bool `json:"is_home"`
	Difficulty int  `json:"difficulty"`
}

type rawLive struct {
	Elements []rawLiveElement `json:"elements"`
}

type rawLiveElement struct {
	ID    int          `json:"id"`
	Stats rawLiveStats `json:"stats"`
}

type rawLiveStats struct {
	TotalPoints int `json:"total_points"`
	Minutes     int `json:"minutes"`
	GoalsScored int `json:"goals_scored"`
	Assists     int `json:"assists"`
	CleanSheets int `json:"clean_sheets"`
	Bonus       int `json:"bonus"`
	BPS         int `json:"bps"`
}

// parseFloat converts an upstream numeric string to float64. Empty
// strings and the literal "None" decode to 0 rather than an error;
// malformed values also collapse to 0 so one bad field never fails a
// whole bootstrap payload.
func parseFloat(s string) float64 {
	if s == "" || s == "None" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseTime decodes an upstream RFC 3339 timestamp, returning the zero
// time for empty or malformed values.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (e rawElement) toDomain() domain.Player {
	return domain.Player{
		ID:                e.ID,
		FirstName:         e.FirstName,
		SecondName:        e.SecondName,
		WebName:           e.WebName,
		TeamID:            e.Team,
		Position:          domain.PositionFromElementType(e.ElementType),
		Cost:              float64(e.NowCost) / 10.0,
		TotalPoints:       e.TotalPoints,
		Minutes:           e.Minutes,
		GoalsScored:       e.GoalsScored,
		Assists:           e.Assists,
		CleanSheets:       e.CleanSheets,
		Bonus:             e.Bonus,
		YellowCards:       e.YellowCards,
		RedCards:          e.RedCards,
		Form:              parseFloat(e.Form),
		PointsPerGame:     parseFloat(e.PointsPerGame),
		SelectedByPercent: parseFloat(e.SelectedByPercent),
		Status:            domain.AvailabilityFromStatus(e.Status),
		ChanceOfPlaying:   e.ChanceOfPlayingNextRound,
	}
}

func (t rawTeam) toDomain() domain.Team {
	return domain.Team{
		ID:                  t.ID,
		Name:                t.Name,
		ShortName:           t.ShortName,
		StrengthOverallHome: t.StrengthOverallHome,
		StrengthOverallAway: t.StrengthOverallAway,
		StrengthAttackHome:  t.StrengthAttackHome,
		StrengthAttackAway:  t.StrengthAttackAway,
		StrengthDefenceHome: t.StrengthDefenceHome,
		StrengthDefenceAway: t.StrengthDefenceAway,
	}
}

func (e rawEvent) toDomain() domain.Gameweek {
	return domain.Gameweek{
		ID:           e.ID,
		Name:         e.Name,
		DeadlineTime: parseTime(e.DeadlineTime),
		IsCurrent:    e.IsCurrent,
		IsNext:       e.IsNext,
		Finished:     e.Finished,
	}
}

func (f rawFixture) toDomain() domain.Fixture {
	gw := 0
	if f.Event != nil {
		gw = *f.Event
	}
	return domain.Fixture{
		ID:             f.ID,
		Gameweek:       gw,
		HomeTeamID:     f.TeamH,
		AwayTeamID:     f.TeamA,
		HomeDifficulty: f.TeamHDifficulty,
		AwayDifficulty: f.TeamADifficulty,
		KickoffTime:    parseTime(f.KickoffTime),
		Finished:       f.Finished,
	}
}

func (s rawElementSummary) toDomain(playerID int) *domain.PlayerDetail {
	detail := &domain.PlayerDetail{
		PlayerID: playerID,
		History:  make([]domain.GameweekStat, 0, len(s.History)),
		Upcoming: make([]domain.FixtureRef, 0, len(s.Fixtures)),
	}
	for _, row := range s.History {
		detail.History = append(detail.History, domain.GameweekStat{
			Gameweek:    row.Round,
			TotalPoints: row.TotalPoints,
			Minutes:     row.Minutes,
			GoalsScored: row.GoalsScored,
			Assists:     row.Assists,
			CleanSheets: row.CleanSheets,
			Bonus:       row.Bonus,
			BPS:         row.BPS,
		})
	}
	for _, fx := range s.Fixtures {
		gw := 0
		if fx.Event != nil {
			gw = *fx.Event
		}
		opponent := fx.TeamH
		if fx.IsHome {
			opponent = fx.TeamA
		}
		detail.Upcoming = append(detail.Upcoming, domain.FixtureRef{
			Gameweek:       gw,
			OpponentTeamID: opponent,
			IsHome:         fx.IsHome,
			Difficulty:     fx.Difficulty,
		})
	}
	return detail
}
