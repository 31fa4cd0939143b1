package projection

import "fpl-toolkit/internal/domain"

// Expected-minutes fallbacks when a player has no recorded history.
const (
	defaultMinutesAvailable   = 75.0
	defaultMinutesUnavailable = 30.0

	minExpectedMinutes = 15.0
	maxExpectedMinutes = 90.0
)

// categoryWeights allocates non-appearance points across categories.
// Per position, the weights cover appearance, goals, assists, clean
// sheets, bonus and misc; only the non-appearance entries are used for
// allocation, renormalized over their sum.
type categoryWeights struct {
	Appearance float64
	Goals      float64
	Assists    float64
	CleanSheet float64
	Bonus      float64
	Misc       float64
}

var breakdownWeights = map[domain.Position]categoryWeights{
	domain.PositionGK:  {Appearance: 0.25, Goals: 0.10, Assists: 0.05, CleanSheet: 0.35, Bonus: 0.15, Misc: 0.10},
	domain.PositionDEF: {Appearance: 0.20, Goals: 0.15, Assists: 0.20, CleanSheet: 0.25, Bonus: 0.15, Misc: 0.05},
	domain.PositionMID: {Appearance: 0.15, Goals: 0.25, Assists: 0.25, CleanSheet: 0.10, Bonus: 0.20, Misc: 0.05},
	domain.PositionFWD: {Appearance: 0.15, Goals: 0.40, Assists: 0.15, CleanSheet: 0.05, Bonus: 0.20, Misc: 0.05},
}

// ExpectedMinutes estimates minutes for the next gameweek from the last
// three recorded gameweeks, clamped to [15, 90]. With no history the
// estimate falls back on availability alone.
func ExpectedMinutes(history []domain.GameweekStat, status domain.Availability) float64 {
	if len(history) == 0 {
		if status.IsAvailable() {
			return defaultMinutesAvailable
		}
		return defaultMinutesUnavailable
	}

	window := history
	if len(window) > 3 {
		window = window[len(window)-3:]
	}

	var sum float64
	for _, row := range window {
		sum += float64(row.Minutes)
	}
	avg := sum / float64(len(window))

	if avg < minExpectedMinutes {
		return minExpectedMinutes
	}
	if avg > maxExpectedMinutes {
		return maxExpectedMinutes
	}
	return avg
}

// Breakdown decomposes projected points into scoring categories. The
// categories are a presentation of the projection, not an independent
// estimate: Total always equals the input points, with any allocation
// slack absorbed by the misc category.
func Breakdown(points float64, player *domain.Player, expectedMinutes float64) domain.PointsBreakdown {
	b := domain.PointsBreakdown{Total: points}
	if points <= 0 {
		return b
	}

	// Appearance points use the literal scoring rule: 2 points for 60+
	// minutes, pro-rated below.
	appearance := 2.0
	if expectedMinutes < 60 {
		appearance = 2.0 * expectedMinutes / 90.0
	}
	if appearance > points {
		appearance = points
	}
	b.Appearance = appearance

	remaining := points - appearance
	if remaining <= 0 {
		return b
	}

	weights := breakdownWeights[player.Position]
	weightSum := weights.Goals + weights.Assists + weights.CleanSheet + weights.Bonus + weights.Misc

	formMult := 0.8 + player.Form/10.0*0.4
	minutesMult := expectedMinutes / 60.0
	if minutesMult > 1.0 {
		minutesMult = 1.0
	}

	left := remaining
	allocate := func(weight float64) float64 {
		scaled := remaining * (weight / weightSum) * formMult * minutesMult
		if scaled > left {
			scaled = left
		}
		left -= scaled
		return scaled
	}

	b.Goals = allocate(weights.Goals)
	b.Assists = allocate(weights.Assists)
	b.CleanSheet = allocate(weights.CleanSheet)
	b.Bonus = allocate(weights.Bonus)
	b.Misc = allocate(weights.Misc)

	// Force the decomposition to sum to the projection.
	b.Misc += left
	return b
}
