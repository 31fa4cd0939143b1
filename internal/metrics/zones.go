package metrics

import "fpl-toolkit/internal/domain"

// Attacking zones an opponent can be weak in. Zone weakness tables map
// each zone to a multiplier where 1.0 is league average and values
// above 1.0 mean the opponent concedes more from that zone.
const (
	ZoneBoxCentral = "box-central"
	ZoneBoxLeft    = "box-left"
	ZoneBoxRight   = "box-right"
	ZoneSetPieces  = "set-pieces"
	ZoneOutsideBox = "outside-box"
)

// AttackStyle names how a player's threat distributes across zones.
type AttackStyle string

const (
	StyleBalanced  AttackStyle = "balanced"
	StyleWingHeavy AttackStyle = "wing_heavy"
	StyleCentral   AttackStyle = "central"
	StyleSetPiece  AttackStyle = "set_piece"
)

// IsValid checks if the attack style is a known value.
func (s AttackStyle) IsValid() bool {
	switch s {
	case StyleBalanced, StyleWingHeavy, StyleCentral, StyleSetPiece:
		return true
	}
	return false
}

// relevantZones maps a position to the zones its scoring draws from.
// Goalkeepers have none; the zone adjustment never applies to them.
var relevantZones = map[domain.Position][]string{
	domain.PositionFWD: {ZoneBoxCentral, ZoneBoxLeft, ZoneBoxRight, ZoneSetPieces},
	domain.PositionMID: {ZoneBoxCentral, ZoneOutsideBox, ZoneBoxLeft, ZoneBoxRight},
	domain.PositionDEF: {ZoneSetPieces, ZoneBoxCentral},
	domain.PositionGK:  nil,
}

// styleWeights gives each zone's weight within an attack style. Zones
// absent from a style's table weigh 1.0.
var styleWeights = map[AttackStyle]map[string]float64{
	StyleBalanced: {},
	StyleWingHeavy: {
		ZoneBoxLeft:    1.5,
		ZoneBoxRight:   1.5,
		ZoneBoxCentral: 0.75,
		ZoneSetPieces:  0.75,
	},
	StyleCentral: {
		ZoneBoxCentral: 1.6,
		ZoneOutsideBox: 1.2,
		ZoneBoxLeft:    0.7,
		ZoneBoxRight:   0.7,
	},
	StyleSetPiece: {
		ZoneSetPieces:  2.0,
		ZoneBoxCentral: 1.2,
		ZoneBoxLeft:    0.6,
		ZoneBoxRight:   0.6,
		ZoneOutsideBox: 0.6,
	},
}

// zoneWeight returns the weight of zone within style.
func zoneWeight(style AttackStyle, zone string) float64 {
	weights, ok := styleWeights[style]
	if !ok {
		return 1.0
	}
	if w, ok := weights[zone]; ok {
		return w
	}
	return 1.0
}
