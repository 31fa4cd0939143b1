package metrics

import (
	"math"
	"testing"

	"fpl-toolkit/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEnhance_NoData(t *testing.T) {
	e := NewEngine(nil, nil)

	result := e.Enhance(5.0, "Erling Haaland", 3, domain.PositionFWD, 90, StyleBalanced)

	if result.Final != 5.0 {
		t.Errorf("expected passthrough 5.0, got %v", result.Final)
	}
	if result.XGApplied || result.ZoneApplied {
		t.Error("expected both adjustments skipped without data")
	}
	if result.ZoneMultiplier != 1.0 {
		t.Errorf("expected neutral zone multiplier, got %v", result.ZoneMultiplier)
	}
}

func TestEnhance_ExpectedRateBlend(t *testing.T) {
	rates := map[string]ExpectedRates{
		"erling haaland": {XGPer90: 0.9, XAPer90: 0.2},
	}
	e := NewEngine(rates, nil)

	result := e.Enhance(5.0, "Erling Haaland", 3, domain.PositionFWD, 90, StyleBalanced)

	// xg points = 0.9*5 = 4.5, xa points = 0.2*3 = 0.6
	want := 0.7*5.0 + 0.3*(4.5+0.6)
	if !almostEqual(result.Final, want) {
		t.Errorf("expected blended %v, got %v", want, result.Final)
	}
	if !result.XGApplied {
		t.Error("expected xg blend applied")
	}
	if result.ZoneApplied {
		t.Error("expected no zone adjustment without zone data")
	}
}

func TestEnhance_MinutesScaleRates(t *testing.T) {
	rates := map[string]ExpectedRates{
		"erling haaland": {XGPer90: 0.9, XAPer90: 0.0},
	}
	e := NewEngine(rates, nil)

	result := e.Enhance(5.0, "Erling Haaland", 3, domain.PositionFWD, 45, StyleBalanced)

	want := 0.7*5.0 + 0.3*(0.9*45.0/90.0*5.0)
	if !almostEqual(result.Final, want) {
		t.Errorf("expected half-minutes blend %v, got %v", want, result.Final)
	}
}

func TestEnhance_FuzzyNameMatch(t *testing.T) {
	rates := map[string]ExpectedRates{
		"haaland": {XGPer90: 0.9, XAPer90: 0.2},
	}
	e := NewEngine(rates, nil)

	cases := []string{"Haaland", "Erling Haaland", "haaland"}
	for _, name := range cases {
		result := e.Enhance(5.0, name, 3, domain.PositionFWD, 90, StyleBalanced)
		if !result.XGApplied {
			t.Errorf("expected match for %q", name)
		}
	}

	if r := e.Enhance(5.0, "Salah", 3, domain.PositionFWD, 90, StyleBalanced); r.XGApplied {
		t.Error("expected no match for unrelated name")
	}
}

func TestEnhance_ZoneWeakness(t *testing.T) {
	zones := ZoneWeakness{
		3: {
			ZoneBoxCentral: 1.2,
			ZoneBoxLeft:    1.2,
			ZoneBoxRight:   1.2,
			ZoneSetPieces:  1.2,
		},
	}
	e := NewEngine(nil, zones)

	result := e.Enhance(5.0, "Erling Haaland", 3, domain.PositionFWD, 90, StyleBalanced)

	// All relevant forward zones carry 1.2, so the weighted mean is 1.2.
	if !almostEqual(result.ZoneMultiplier, 1.2) {
		t.Errorf("expected zone multiplier 1.2, got %v", result.ZoneMultiplier)
	}
	if !almostEqual(result.Final, 6.0) {
		t.Errorf("expected 6.0 after zone adjustment, got %v", result.Final)
	}
	if !result.ZoneApplied {
		t.Error("expected zone adjustment applied")
	}
}

func TestEnhance_ZoneStyleWeighting(t *testing.T) {
	zones := ZoneWeakness{
		3: {
			ZoneBoxCentral: 1.0,
			ZoneBoxLeft:    1.4,
			ZoneBoxRight:   1.4,
			ZoneSetPieces:  1.0,
		},
	}
	e := NewEngine(nil, zones)

	balanced := e.Enhance(5.0, "x", 3, domain.PositionFWD, 90, StyleBalanced)
	wingHeavy := e.Enhance(5.0, "x", 3, domain.PositionFWD, 90, StyleWingHeavy)

	// Wing-heavy weights the weak flanks harder, so its multiplier must
	// exceed the balanced one.
	if wingHeavy.ZoneMultiplier <= balanced.ZoneMultiplier {
		t.Errorf("expected wing-heavy multiplier > balanced: %v <= %v",
			wingHeavy.ZoneMultiplier, balanced.ZoneMultiplier)
	}
}

func TestEnhance_GoalkeeperSkipsZones(t *testing.T) {
	zones := ZoneWeakness{
		3: {ZoneBoxCentral: 1.5, ZoneSetPieces: 1.5},
	}
	e := NewEngine(nil, zones)

	result := e.Enhance(4.0, "Keeper", 3, domain.PositionGK, 90, StyleBalanced)

	if result.ZoneApplied {
		t.Error("expected no zone adjustment for goalkeepers")
	}
	if result.Final != 4.0 {
		t.Errorf("expected passthrough 4.0, got %v", result.Final)
	}
}

func TestEnhance_MissingZoneDefaultsToNeutral(t *testing.T) {
	zones := ZoneWeakness{
		3: {ZoneSetPieces: 2.0},
	}
	e := NewEngine(nil, zones)

	// Defender zones are set-pieces and box-central; the missing
	// box-central entry counts as 1.0.
	result := e.Enhance(4.0, "x", 3, domain.PositionDEF, 90, StyleBalanced)

	if !almostEqual(result.ZoneMultiplier, 1.5) {
		t.Errorf("expected zone multiplier 1.5, got %v", result.ZoneMultiplier)
	}
}

func TestLoadEngine_MissingFiles(t *testing.T) {
	e := LoadEngine("/nonexistent/rates.json", "/nonexistent/zones.json")

	result := e.Enhance(5.0, "anyone", 1, domain.PositionMID, 90, StyleBalanced)
	if result.Final != 5.0 || result.XGApplied || result.ZoneApplied {
		t.Errorf("expected inert engine from missing files, got %+v", result)
	}
}
