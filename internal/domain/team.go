package domain

// Team is a club snapshot with the upstream strength ratings.
// Upstream stores strengths on a roughly 1000-1400 integer scale;
// consumers normalize them to 1-5 via NormalizeStrength.
type Team struct {
	ID                  int    // upstream team id
	Name                string // full club name
	ShortName           string // three-letter code
	StrengthOverallHome int    // overall rating at home
	StrengthOverallAway int    // overall rating away
	StrengthAttackHome  int    // attack rating at home
	StrengthAttackAway  int    // attack rating away
	StrengthDefenceHome int    // defence rating at home
	StrengthDefenceAway int    // defence rating away
}

// NormalizeStrength converts an upstream strength rating to the 1-5
// scale. Values already on the 1-5 scale pass through; the larger
// upstream integer scale is divided down. Result is clamped to [1, 5].
func NormalizeStrength(raw int) float64 {
	v := float64(raw)
	if v > 5 {
		v = v / 250.0
	}
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}
