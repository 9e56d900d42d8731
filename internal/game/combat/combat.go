// Package combat resolves a single move into a hit or a miss with hidden
// damage and narrative text. Resolution is pure: it never touches the
// combatants, and all randomness comes from an injected dice.Source.
package combat

import "errors"

// ErrInvalidMoveCategory is attached to a hit whose move is a status move.
// Status moves deal no damage; this is never fatal.
var ErrInvalidMoveCategory = errors.New("status move cannot deal damage")

// Damage formula constants.
const (
	DamageScale = 0.4
	VarianceMin = 0.85
	VarianceMax = 1.0
)

// Stats are the hidden stat values a combatant fights with.
type Stats struct {
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
}

// Tier is the narrative effectiveness bucket shown to the player in place of
// the numeric multiplier.
type Tier int

const (
	TierNeutral Tier = iota
	TierDevastating
	TierVeryEffective
	TierNotVeryEffective
	TierBarelyEffective
)

// Tier bounds. A move counts as effective in the battle log at
// VeryEffectiveThreshold and above.
const (
	DevastatingThreshold      = 2.0
	VeryEffectiveThreshold    = 1.5
	NotVeryEffectiveThreshold = 0.5
)

// TierFor buckets a multiplier. Checks run from the top down, so multipliers
// strictly between 1.0 and 1.5 read as not very effective.
//
// Postcondition: Returns one of the five Tier values.
func TierFor(mult float64) Tier {
	switch {
	case mult >= DevastatingThreshold:
		return TierDevastating
	case mult >= VeryEffectiveThreshold:
		return TierVeryEffective
	case mult == 1.0:
		return TierNeutral
	case mult >= NotVeryEffectiveThreshold:
		return TierNotVeryEffective
	default:
		return TierBarelyEffective
	}
}

// String returns a short label for the tier.
func (t Tier) String() string {
	switch t {
	case TierDevastating:
		return "devastating"
	case TierVeryEffective:
		return "very effective"
	case TierNeutral:
		return "neutral"
	case TierNotVeryEffective:
		return "not very effective"
	case TierBarelyEffective:
		return "barely effective"
	default:
		return "unknown"
	}
}

// Narrative returns the player-facing sentence for the tier. Neutral has none.
func (t Tier) Narrative() string {
	switch t {
	case TierDevastating:
		return "It's devastatingly effective!"
	case TierVeryEffective:
		return "It's very effective!"
	case TierNotVeryEffective:
		return "It doesn't seem very effective..."
	case TierBarelyEffective:
		return "It barely has any effect..."
	default:
		return ""
	}
}
