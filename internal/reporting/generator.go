package reporting

import (
	"time"

	"fpl-toolkit/internal/advisor"
	"fpl-toolkit/internal/domain"
)

// Generator assembles reports from advisory output.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report from squad advice and an optional set of
// planned scenarios.
func (g *Generator) Generate(advice *advisor.Advice, scenarios []domain.PlanScenario, gameweek int) *Report {
	r := &Report{
		GeneratedAt:    g.now(),
		Gameweek:       gameweek,
		Horizon:        advice.Horizon,
		Summary:        advice.Summary,
		TotalProjected: advice.TotalProjected,
	}

	for _, u := range advice.Underperformers {
		r.Underperformers = append(r.Underperformers, UnderperformerRow{
			Name:          u.Player.Name(),
			Position:      u.Player.Position.String(),
			Cost:          u.Player.Cost,
			PointsPerGame: u.Player.PointsPerGame,
			Form:          u.Player.Form,
			Issues:        u.Issues,
		})
	}

	for _, d := range advice.Differentials {
		r.Differentials = append(r.Differentials, DifferentialRow{
			Name:          d.Player.Name(),
			Ownership:     d.Player.SelectedByPercent,
			PointsPerGame: d.Player.PointsPerGame,
			Score:         d.Score,
		})
	}

	for _, e := range advice.CostEfficiency {
		r.CostEfficiency = append(r.CostEfficiency, EfficiencyRow{
			Name:          e.Player.Name(),
			Cost:          e.Player.Cost,
			PointsPerGame: e.Player.PointsPerGame,
			Efficiency:    e.Efficiency,
		})
	}

	for _, s := range scenarios {
		r.Scenarios = append(r.Scenarios, ScenarioRow{
			Name:           s.Name,
			Description:    s.Description,
			Transfers:      len(s.Moves),
			ExpectedPoints: s.ExpectedPoints,
			TransferCost:   s.TransferCost,
			NetPoints:      s.NetPoints,
			RiskLevel:      s.RiskLevel,
		})
	}

	for _, rec := range advice.Recommendations {
		r.Recommendations = append(r.Recommendations, rec.Message)
	}

	return r
}
