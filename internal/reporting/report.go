package reporting

import "time"

// Report is the rendered advisory output for one squad and gameweek.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Gameweek    int
	Horizon     int

	// Prose summary from the advisor.
	Summary string

	// Summed squad horizon projection.
	TotalProjected float64

	// Squad issues (sorted by priority)
	Underperformers []UnderperformerRow

	// Market picks
	Differentials  []DifferentialRow
	CostEfficiency []EfficiencyRow

	// Planned scenarios (sorted by net points)
	Scenarios []ScenarioRow

	// Actionable one-liners, highest priority first.
	Recommendations []string
}

// UnderperformerRow represents one flagged squad member.
type UnderperformerRow struct {
	Name          string
	Position      string
	Cost          float64
	PointsPerGame float64
	Form          float64
	Issues        []string
}

// DifferentialRow represents one low-ownership pick.
type DifferentialRow struct {
	Name          string
	Ownership     float64
	PointsPerGame float64
	Score         float64
}

// EfficiencyRow represents points per game per million of price.
type EfficiencyRow struct {
	Name          string
	Cost          float64
	PointsPerGame float64
	Efficiency    float64
}

// ScenarioRow represents one planned transfer scenario.
type ScenarioRow struct {
	Name           string
	Description    string
	Transfers      int
	ExpectedPoints float64
	TransferCost   int
	NetPoints      float64
	RiskLevel      string
}
