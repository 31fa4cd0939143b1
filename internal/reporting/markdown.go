package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Gameweek %d Advisory Report\n\n", r.Gameweek))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Horizon: %d gameweeks | Projected squad points: %.1f\n\n", r.Horizon, r.TotalProjected))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString(r.Summary)
	sb.WriteString("\n\n")

	// Squad issues
	sb.WriteString("## Underperformers\n\n")
	if len(r.Underperformers) > 0 {
		sb.WriteString("| Player | Position | Cost | PPG | Form | Issues |\n")
		sb.WriteString("|--------|----------|------|-----|------|--------|\n")
		for _, u := range r.Underperformers {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.1f | %.1f | %.1f | %s |\n",
				u.Name, u.Position, u.Cost, u.PointsPerGame, u.Form, strings.Join(u.Issues, "; ")))
		}
	} else {
		sb.WriteString("No underperformers flagged.\n")
	}
	sb.WriteString("\n")

	// Differentials
	sb.WriteString("## Differentials\n\n")
	if len(r.Differentials) > 0 {
		sb.WriteString("| Player | Ownership | PPG | Score |\n")
		sb.WriteString("|--------|-----------|-----|-------|\n")
		for _, d := range r.Differentials {
			sb.WriteString(fmt.Sprintf("| %s | %.1f%% | %.1f | %.2f |\n",
				d.Name, d.Ownership, d.PointsPerGame, d.Score))
		}
	} else {
		sb.WriteString("No differentials available.\n")
	}
	sb.WriteString("\n")

	// Cost efficiency
	sb.WriteString("## Cost Efficiency\n\n")
	if len(r.CostEfficiency) > 0 {
		sb.WriteString("| Player | Cost | PPG | Points per Million |\n")
		sb.WriteString("|--------|------|-----|--------------------|\n")
		for _, e := range r.CostEfficiency {
			sb.WriteString(fmt.Sprintf("| %s | %.1f | %.1f | %.3f |\n",
				e.Name, e.Cost, e.PointsPerGame, e.Efficiency))
		}
	} else {
		sb.WriteString("No cost efficiency data available.\n")
	}
	sb.WriteString("\n")

	// Scenarios
	sb.WriteString("## Scenarios\n\n")
	if len(r.Scenarios) > 0 {
		sb.WriteString("| Scenario | Transfers | Expected | Cost | Net | Risk |\n")
		sb.WriteString("|----------|-----------|----------|------|-----|------|\n")
		for _, s := range r.Scenarios {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.1f | %d | %.1f | %s |\n",
				s.Name, s.Transfers, s.ExpectedPoints, s.TransferCost, s.NetPoints, s.RiskLevel))
		}
	} else {
		sb.WriteString("No scenarios planned.\n")
	}
	sb.WriteString("\n")

	// Recommendations
	sb.WriteString("## Recommendations\n\n")
	if len(r.Recommendations) > 0 {
		for _, rec := range r.Recommendations {
			sb.WriteString(fmt.Sprintf("- %s\n", rec))
		}
	} else {
		sb.WriteString("No recommendations.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
