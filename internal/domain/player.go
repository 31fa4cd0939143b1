package domain

// Position represents a player's position class.
type Position string

const (
	PositionGK  Position = "GK"
	PositionDEF Position = "DEF"
	PositionMID Position = "MID"
	PositionFWD Position = "FWD"
)

// String returns the string representation of Position.
func (p Position) String() string {
	return string(p)
}

// IsValid checks if the position is a valid value.
func (p Position) IsValid() bool {
	switch p {
	case PositionGK, PositionDEF, PositionMID, PositionFWD:
		return true
	}
	return false
}

// PositionFromElementType converts the upstream element_type code (1-4)
// to a Position. Unknown codes default to MID.
func PositionFromElementType(code int) Position {
	switch code {
	case 1:
		return PositionGK
	case 2:
		return PositionDEF
	case 3:
		return PositionMID
	case 4:
		return PositionFWD
	}
	return PositionMID
}

// Availability represents a player's availability status.
type Availability string

const (
	Available   Availability = "available"
	Doubtful    Availability = "doubtful"
	Injured     Availability = "injured"
	Suspended   Availability = "suspended"
	Unavailable Availability = "unavailable"
)

// AvailabilityFromStatus converts the upstream single-letter status code.
// Unknown codes map to Unavailable.
func AvailabilityFromStatus(status string) Availability {
	switch status {
	case "a":
		return Available
	case "d":
		return Doubtful
	case "i":
		return Injured
	case "s":
		return Suspended
	case "u":
		return Unavailable
	}
	return Unavailable
}

// IsAvailable reports whether the player can be expected to play.
func (a Availability) IsAvailable() bool {
	return a == Available
}

// Player is a read-mostly snapshot of one player from the upstream
// bootstrap data. The engine treats it as immutable input per call.
type Player struct {
	ID                int          // upstream element id
	FirstName         string       // first name
	SecondName        string       // second name
	WebName           string       // short display name
	TeamID            int          // owning club id
	Position          Position     // GK | DEF | MID | FWD
	Cost              float64      // current cost in millions (upstream tenths / 10)
	TotalPoints       int          // season total points
	Minutes           int          // season minutes played
	GoalsScored       int          // season goals
	Assists           int          // season assists
	CleanSheets       int          // season clean sheets
	Bonus             int          // season bonus points
	YellowCards       int          // season yellow cards
	RedCards          int          // season red cards
	Form              float64      // rolling form indicator (upstream string)
	PointsPerGame     float64      // season points per game (upstream string)
	SelectedByPercent float64      // ownership percentage (upstream string)
	Status            Availability // availability status
	ChanceOfPlaying   *int         // chance of playing this round, nil if unknown
}

// Name returns the player's full display name.
func (p *Player) Name() string {
	if p.FirstName == "" {
		return p.SecondName
	}
	return p.FirstName + " " + p.SecondName
}
