package domain

// Qualitative risk labels attached to planned scenarios.
const (
	RiskLow        = "Low"
	RiskMedium     = "Medium"
	RiskMediumHigh = "Medium-High"
	RiskHigh       = "High"
)

// PlanScenario is one candidate multi-transfer plan for a gameweek.
type PlanScenario struct {
	Name           string         // short scenario label
	Description    string         // one-line explanation of the idea
	Moves          []TransferMove // transfers the plan makes, in order
	ExpectedPoints float64        // projected squad points over the horizon
	TransferCost   int            // point hits the plan takes
	NetPoints      float64        // ExpectedPoints - TransferCost
	RiskLevel      string         // one of the Risk* labels
}

// ScenarioComparison summarizes a ranked scenario set.
type ScenarioComparison struct {
	Best           *PlanScenario // highest net points
	Worst          *PlanScenario // lowest net points
	PointRange     float64       // best net minus worst net
	Recommendation string        // guidance derived from the margin
}

// WeeklyStep is one gameweek of a multi-week transfer plan.
type WeeklyStep struct {
	Gameweek        int            // planned gameweek
	Moves           []TransferMove // transfers made that week
	FlaggedPlayers  []int          // squad members facing hard fixtures
	EstimatedPoints float64        // squad point estimate for the week
}

// WeeklyPlan is a greedy gameweek-by-gameweek transfer schedule.
type WeeklyPlan struct {
	Steps          []WeeklyStep // one entry per planned gameweek
	TotalTransfers int          // moves across all steps
	TotalPoints    float64      // summed weekly estimates
}
