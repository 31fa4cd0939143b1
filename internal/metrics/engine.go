package metrics

import (
	"encoding/json"
	"os"
	"strings"

	"fpl-toolkit/internal/domain"
)

// Expected-rate blend constants. Goals are worth roughly 5 points and
// assists 3 across positions; the blend keeps 70% of the base estimate.
const (
	goalPointValue   = 5.0
	assistPointValue = 3.0
	baseBlendWeight  = 0.7
	rateBlendWeight  = 0.3
)

// ExpectedRates holds a player's per-90 expected output.
type ExpectedRates struct {
	XGPer90 float64 `json:"xg_per90"`
	XAPer90 float64 `json:"xa_per90"`
}

// ZoneWeakness maps team id to zone name to concede multiplier.
type ZoneWeakness map[int]map[string]float64

// Enhancement reports what the engine did to one projection.
type Enhancement struct {
	Base               float64 // input projection
	AfterExpectedRates float64 // value after the xG/xA blend
	ZoneMultiplier     float64 // weighted zone multiplier applied, 1.0 if none
	Final              float64 // output projection
	XGApplied          bool    // expected-rate blend ran
	ZoneApplied        bool    // zone adjustment ran
}

// Engine applies optional enrichment to raw point projections. Both
// data tables are optional; a missing table turns its adjustment into
// a no-op, never an error.
type Engine struct {
	rates map[string]ExpectedRates // keyed by lowercased player name
	zones ZoneWeakness
}

// NewEngine creates an engine from in-memory tables. Either argument
// may be nil.
func NewEngine(rates map[string]ExpectedRates, zones ZoneWeakness) *Engine {
	normalized := make(map[string]ExpectedRates, len(rates))
	for name, r := range rates {
		normalized[strings.ToLower(strings.TrimSpace(name))] = r
	}
	return &Engine{rates: normalized, zones: zones}
}

// LoadEngine builds an engine from optional JSON files. A missing or
// malformed file yields an empty table for that adjustment; loading
// never fails.
func LoadEngine(ratesPath, zonesPath string) *Engine {
	var rates map[string]ExpectedRates
	if ratesPath != "" {
		if data, err := os.ReadFile(ratesPath); err == nil {
			_ = json.Unmarshal(data, &rates)
		}
	}

	var zones ZoneWeakness
	if zonesPath != "" {
		if data, err := os.ReadFile(zonesPath); err == nil {
			_ = json.Unmarshal(data, &zones)
		}
	}
	return NewEngine(rates, zones)
}

// Enhance applies the expected-rate blend and the zone-weakness
// adjustment to base, in that order. minutes is the projected minutes
// for the gameweek being enhanced.
func (e *Engine) Enhance(base float64, playerName string, opponentTeamID int, position domain.Position, minutes float64, style AttackStyle) Enhancement {
	result := Enhancement{
		Base:               base,
		AfterExpectedRates: base,
		ZoneMultiplier:     1.0,
		Final:              base,
	}

	if rates, ok := e.lookupRates(playerName); ok {
		xgPoints := rates.XGPer90 * minutes / 90.0 * goalPointValue
		xaPoints := rates.XAPer90 * minutes / 90.0 * assistPointValue
		result.AfterExpectedRates = baseBlendWeight*base + rateBlendWeight*(xgPoints+xaPoints)
		result.XGApplied = true
	}

	result.Final = result.AfterExpectedRates

	if mult, ok := e.zoneMultiplier(opponentTeamID, position, style); ok {
		result.ZoneMultiplier = mult
		result.Final = result.AfterExpectedRates * mult
		result.ZoneApplied = true
	}

	return result
}

// lookupRates finds expected rates by fuzzy player name match: exact,
// containment, or equal last token, all lowercased.
func (e *Engine) lookupRates(playerName string) (ExpectedRates, bool) {
	name := strings.ToLower(strings.TrimSpace(playerName))
	if name == "" {
		return ExpectedRates{}, false
	}

	if r, ok := e.rates[name]; ok {
		return r, true
	}

	nameParts := strings.Fields(name)
	for key, r := range e.rates {
		if strings.Contains(key, name) || strings.Contains(name, key) {
			return r, true
		}
		keyParts := strings.Fields(key)
		if len(nameParts) > 0 && len(keyParts) > 0 &&
			nameParts[len(nameParts)-1] == keyParts[len(keyParts)-1] {
			return r, true
		}
	}
	return ExpectedRates{}, false
}

// zoneMultiplier computes the weighted mean multiplier across the
// position's relevant zones. Returns false when there is no zone data
// for the opponent or the position has no relevant zones.
func (e *Engine) zoneMultiplier(opponentTeamID int, position domain.Position, style AttackStyle) (float64, bool) {
	teamZones, ok := e.zones[opponentTeamID]
	if !ok || len(teamZones) == 0 {
		return 1.0, false
	}

	zones := relevantZones[position]
	if len(zones) == 0 {
		return 1.0, false
	}

	var weighted, totalWeight float64
	for _, zone := range zones {
		mult, ok := teamZones[zone]
		if !ok {
			mult = 1.0
		}
		w := zoneWeight(style, zone)
		weighted += mult * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 1.0, false
	}
	return weighted / totalWeight, true
}
