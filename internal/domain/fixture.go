package domain

import "time"

// Fixture is one scheduled match between two clubs.
type Fixture struct {
	ID             int       // upstream fixture id
	Gameweek       int       // event number, 0 if unscheduled
	HomeTeamID     int       // team_h
	AwayTeamID     int       // team_a
	HomeDifficulty int       // upstream difficulty hint for the home side
	AwayDifficulty int       // upstream difficulty hint for the away side
	KickoffTime    time.Time // scheduled kickoff, zero if unknown
	Finished       bool      // completion flag
}

// Involves reports whether the given team plays in this fixture.
func (f *Fixture) Involves(teamID int) bool {
	return f.HomeTeamID == teamID || f.AwayTeamID == teamID
}

// OpponentOf returns the opposing team id and whether teamID is at home.
// Returns (0, false) if teamID is not in the fixture.
func (f *Fixture) OpponentOf(teamID int) (opponentID int, isHome bool) {
	switch teamID {
	case f.HomeTeamID:
		return f.AwayTeamID, true
	case f.AwayTeamID:
		return f.HomeTeamID, false
	}
	return 0, false
}

// Gameweek is one round of fixtures in the season calendar.
// Exactly one gameweek is current at a time; gameweeks are totally ordered.
type Gameweek struct {
	ID           int       // sequential id, 1-38
	Name         string    // display name
	DeadlineTime time.Time // transfer deadline
	IsCurrent    bool      // exactly one gameweek carries this flag
	IsNext       bool      // the gameweek after the current one
	Finished     bool      // all fixtures complete
}
