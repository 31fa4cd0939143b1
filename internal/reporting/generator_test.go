package reporting

import (
	"strings"
	"testing"
	"time"

	"fpl-toolkit/internal/advisor"
	"fpl-toolkit/internal/domain"
)

func sampleAdvice() *advisor.Advice {
	return &advisor.Advice{
		Summary:        "Projected 180.0 points over the next 5 gameweeks (12.0 per player). 1 player(s) need attention.",
		Horizon:        5,
		TotalProjected: 180.0,
		Underperformers: []advisor.Underperformer{
			{
				Player: domain.Player{
					SecondName:    "Fader",
					Position:      domain.PositionMID,
					Cost:          8.5,
					Form:          1.5,
					PointsPerGame: 2.5,
				},
				Issues:   []string{"low average of 2.5 points per game", "poor recent form of 1.5"},
				Priority: 3,
			},
		},
		Differentials: []advisor.Differential{
			{
				Player: domain.Player{
					SecondName:        "Hidden",
					PointsPerGame:     5.0,
					SelectedByPercent: 2.0,
				},
				Score: 2.5,
			},
		},
		CostEfficiency: []advisor.Efficiency{
			{
				Player: domain.Player{
					SecondName:    "Budget",
					Cost:          4.0,
					PointsPerGame: 4.0,
				},
				Efficiency: 1.0,
			},
		},
		Recommendations: []advisor.Recommendation{
			{Type: "transfer", Priority: "high", Message: "Consider transferring out Fader"},
		},
	}
}

func sampleScenarios() []domain.PlanScenario {
	return []domain.PlanScenario{
		{
			Name:           "Single Transfer",
			Description:    "Swap Fader for Riser",
			Moves:          []domain.TransferMove{{PlayerOutID: 10, PlayerInID: 11}},
			ExpectedPoints: 190.0,
			NetPoints:      190.0,
			RiskLevel:      domain.RiskMedium,
		},
		{
			Name:           "Aggressive (-4 Hit)",
			Description:    "Take a 4 point hit for Riser",
			Moves:          []domain.TransferMove{{PlayerOutID: 10, PlayerInID: 11}},
			ExpectedPoints: 190.0,
			TransferCost:   4,
			NetPoints:      186.0,
			RiskLevel:      domain.RiskHigh,
		},
	}
}

func TestGenerate(t *testing.T) {
	fixed := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	g := NewGenerator().WithClock(func() time.Time { return fixed })

	r := g.Generate(sampleAdvice(), sampleScenarios(), 24)

	if !r.GeneratedAt.Equal(fixed) {
		t.Errorf("expected fixed clock, got %v", r.GeneratedAt)
	}
	if r.Gameweek != 24 || r.Horizon != 5 {
		t.Errorf("unexpected metadata: gw %d horizon %d", r.Gameweek, r.Horizon)
	}
	if len(r.Underperformers) != 1 || r.Underperformers[0].Name != "Fader" {
		t.Errorf("unexpected underperformers: %+v", r.Underperformers)
	}
	if r.Underperformers[0].Position != "MID" {
		t.Errorf("expected position MID, got %s", r.Underperformers[0].Position)
	}
	if len(r.Scenarios) != 2 || r.Scenarios[1].TransferCost != 4 {
		t.Errorf("unexpected scenarios: %+v", r.Scenarios)
	}
	if len(r.Recommendations) != 1 {
		t.Errorf("expected 1 recommendation, got %d", len(r.Recommendations))
	}
}

func TestRenderMarkdown(t *testing.T) {
	g := NewGenerator().WithClock(func() time.Time {
		return time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	})
	r := g.Generate(sampleAdvice(), sampleScenarios(), 24)

	md := RenderMarkdown(r)

	for _, want := range []string{
		"# Gameweek 24 Advisory Report",
		"## Summary",
		"## Underperformers",
		"| Fader | MID | 8.5 | 2.5 | 1.5 |",
		"## Differentials",
		"| Hidden | 2.0% | 5.0 | 2.50 |",
		"## Scenarios",
		"| Aggressive (-4 Hit) | 1 | 190.0 | 4 | 186.0 | High |",
		"## Recommendations",
		"- Consider transferring out Fader",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_EmptySections(t *testing.T) {
	g := NewGenerator()
	r := g.Generate(&advisor.Advice{Summary: "quiet week", Horizon: 3}, nil, 10)

	md := RenderMarkdown(r)
	for _, want := range []string{
		"No underperformers flagged.",
		"No differentials available.",
		"No scenarios planned.",
		"No recommendations.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	g := NewGenerator()
	r := g.Generate(sampleAdvice(), sampleScenarios(), 24)

	csv := RenderCSV(r.Scenarios)
	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "name,transfers,expected_points,transfer_cost,net_points,risk_level" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[2], "\"Aggressive (-4 Hit)\"") && !strings.Contains(lines[2], "Aggressive (-4 Hit)") {
		t.Errorf("unexpected row: %s", lines[2])
	}
}
