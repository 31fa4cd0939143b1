package domain

import "fmt"

// Recommendation represents the verdict tier for a transfer.
type Recommendation string

const (
	StronglyRecommended Recommendation = "strongly_recommended"
	Recommended         Recommendation = "recommended"
	Consider            Recommendation = "consider"
	Neutral             Recommendation = "neutral"
	NotRecommended      Recommendation = "not_recommended"
)

// String returns the string representation of Recommendation.
func (r Recommendation) String() string {
	return string(r)
}

// IsValid checks if the recommendation is a valid value.
func (r Recommendation) IsValid() bool {
	switch r {
	case StronglyRecommended, Recommended, Consider, Neutral, NotRecommended:
		return true
	}
	return false
}

// TransferScenario is the full evaluation of swapping one player for another.
type TransferScenario struct {
	PlayerOutID    int            // player leaving the squad
	PlayerInID     int            // player joining the squad
	Gameweek       int            // gameweek the evaluation targets
	Horizon        int            // gameweeks covered by the projections
	OutProjection  float64        // horizon total for the outgoing player
	InProjection   float64        // horizon total for the incoming player
	ProjectedGain  float64        // InProjection - OutProjection
	CostChange     float64        // incoming cost minus outgoing cost, millions
	Confidence     float64        // mean of both sides' projection confidences
	RiskScore      float64        // accumulated risk in [0, 1]
	Recommendation Recommendation // verdict tier
	Reasoning      []string       // human-readable factors behind the verdict
}

// TransferMove is one concrete swap inside a plan or scenario.
type TransferMove struct {
	PlayerOutID int     // player leaving
	PlayerInID  int     // player joining
	Gameweek    int     // gameweek the move is made
	Gain        float64 // projected gain of the move over its horizon
}

// TeamState is a manager's squad at a point in time. The fifteen-player
// squad breaks down as 2 GK, 5 DEF, 5 MID, 3 FWD.
type TeamState struct {
	PlayerIDs     []int   // the 15 squad members
	Bank          float64 // money in the bank, millions
	FreeTransfers int     // free transfers available
	Gameweek      int     // gameweek the state describes
}

// squad composition limits per position.
var squadQuota = map[Position]int{
	PositionGK:  2,
	PositionDEF: 5,
	PositionMID: 5,
	PositionFWD: 3,
}

// Validate checks squad size and per-position composition against the
// given player index. Unknown player ids fail validation.
func (s *TeamState) Validate(players map[int]*Player) error {
	if len(s.PlayerIDs) != 15 {
		return fmt.Errorf("squad must have 15 players, got %d", len(s.PlayerIDs))
	}
	counts := make(map[Position]int, 4)
	seen := make(map[int]bool, len(s.PlayerIDs))
	for _, id := range s.PlayerIDs {
		if seen[id] {
			return fmt.Errorf("duplicate player %d in squad", id)
		}
		seen[id] = true
		p, ok := players[id]
		if !ok {
			return fmt.Errorf("unknown player %d in squad", id)
		}
		counts[p.Position]++
	}
	for pos, want := range squadQuota {
		if counts[pos] != want {
			return fmt.Errorf("squad must have %d %s, got %d", want, pos, counts[pos])
		}
	}
	return nil
}

// ScenarioRecord is the persisted form of a planned scenario for audit.
type ScenarioRecord struct {
	ID             int64   // BIGSERIAL primary key, 0 before insert
	Name           string  // scenario name
	Gameweek       int     // gameweek the plan targets
	TransferCount  int     // number of moves in the plan
	ExpectedPoints float64 // projected points over the plan horizon
	TransferCost   int     // point hits taken
	NetPoints      float64 // ExpectedPoints - TransferCost
	RiskLevel      string  // qualitative risk label
	CreatedAt      int64   // record creation timestamp (Unix ms)
}
