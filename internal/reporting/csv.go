package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders planned scenarios as CSV string.
func RenderCSV(scenarios []ScenarioRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("name,transfers,expected_points,transfer_cost,net_points,risk_level\n")

	// Rows
	for _, s := range scenarios {
		sb.WriteString(fmt.Sprintf("%s,%d,%.2f,%d,%.2f,%s\n",
			csvEscape(s.Name),
			s.Transfers,
			s.ExpectedPoints,
			s.TransferCost,
			s.NetPoints,
			s.RiskLevel,
		))
	}

	return sb.String()
}

// csvEscape quotes a field containing commas or quotes.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
