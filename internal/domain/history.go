package domain

// GameweekStat is one row of a player's per-gameweek history.
type GameweekStat struct {
	Gameweek    int // event number
	TotalPoints int // points scored that gameweek
	Minutes     int // minutes played
	GoalsScored int // goals
	Assists     int // assists
	CleanSheets int // clean sheets
	Bonus       int // bonus points
	BPS         int // bonus point system score
}

// FixtureRef is one upcoming fixture from a player's perspective.
type FixtureRef struct {
	Gameweek       int  // event number
	OpponentTeamID int  // opposing club id
	IsHome         bool // venue from the player's perspective
	Difficulty     int  // upstream difficulty hint (1-5)
}

// PlayerDetail holds a player's per-gameweek history and upcoming fixtures,
// fetched from the element-summary endpoint.
type PlayerDetail struct {
	PlayerID int            // upstream element id
	History  []GameweekStat // completed gameweeks, chronological
	Upcoming []FixtureRef   // remaining fixtures, chronological
}
