package domain

// PointsBreakdown decomposes a projected score into point categories.
// Total always equals the projected points the breakdown was built from;
// the categories are a decomposition, not an independent estimate.
type PointsBreakdown struct {
	Appearance float64 // points for playing
	Goals      float64 // goal points
	Assists    float64 // assist points
	CleanSheet float64 // clean sheet points
	Bonus      float64 // bonus points
	Misc       float64 // saves, cards, everything else
	Total      float64 // forced equal to the input projection
}

// Projection is a single-gameweek point estimate for one player.
// Derived, never authoritative: always re-derivable from the
// Player+Team+Fixture snapshot at call time.
type Projection struct {
	PlayerID          int             // projected player
	Gameweek          int             // target gameweek
	Points            float64         // projected points
	Minutes           int             // expected minutes, within [0, 90]
	Confidence        float64         // confidence in [0, 1]
	FixtureDifficulty float64         // difficulty used, in [1, 5]
	IsHome            bool            // venue of the projected fixture
	OpponentTeamID    int             // opposing club, 0 if no fixture found
	FormFactor        float64         // trailing-window mean points
	Breakdown         PointsBreakdown // category decomposition
}

// HorizonProjection sums per-gameweek projections over consecutive
// gameweeks starting at the current one.
type HorizonProjection struct {
	PlayerID          int          // projected player
	Horizon           int          // gameweeks requested
	PerGameweek       []Projection // successful per-gameweek projections
	TotalPoints       float64      // sum of PerGameweek points
	AveragePoints     float64      // TotalPoints / len(PerGameweek)
	AverageConfidence float64      // arithmetic mean of confidences
}

// ProjectionRecord is the persisted form of a Projection for audit.
type ProjectionRecord struct {
	ID         int64   // BIGSERIAL primary key, 0 before insert
	PlayerID   int     // projected player
	Gameweek   int     // target gameweek
	Points     float64 // projected points
	Minutes    int     // expected minutes
	Confidence float64 // confidence in [0, 1]
	Difficulty float64 // fixture difficulty used
	CreatedAt  int64   // record creation timestamp (Unix ms)
}

// ProjectionHistoryPoint is one row of the append-only projection
// history timeseries.
type ProjectionHistoryPoint struct {
	PlayerID   int     // projected player
	Gameweek   int     // target gameweek
	ComputedAt int64   // computation timestamp (Unix ms)
	Points     float64 // projected points
	Confidence float64 // confidence in [0, 1]
}
