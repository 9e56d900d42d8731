package veteran

import (
	"math"

	"github.com/cory-johannsen/veteran/internal/game/injury"
)

// Decay parameters: the RecentWindow newest battles count fully, older ones
// decay exponentially over DecayScale battles.
const (
	RecentWindow = 50
	DecayScale   = 50.0
)

// Per-entry score contributions before weighting.
const (
	winExperience     = 10.0
	retreatExperience = 3.0
	faintExperience   = 1.0
	tacticExperience  = 2.0
	veterancyFactor   = 5.0
	effectiveMoveGain = 3.0
	damageTrauma      = 0.5
	killedTrauma      = 100.0
	faintTrauma       = 15.0
	severeTagTrauma   = 30.0
	staggerTagTrauma  = 5.0
)

// Scores are the four derived veteran scores.
//
// Invariant: every field is >= 0.
type Scores struct {
	CombatExperience float64 `json:"combat_experience"`
	Adaptation       float64 `json:"adaptation"`
	Trauma           float64 `json:"trauma"`
	InjurySeverity   float64 `json:"injury_severity"`
}

// Effective is the net veteran score. It may be negative.
func (s Scores) Effective() float64 {
	return (s.CombatExperience + s.Adaptation) - (s.Trauma + s.InjurySeverity)
}

// Weight returns the decay weight of an entry battlesAgo battles behind the
// newest one.
//
// Postcondition: Returns 1.0 for battlesAgo < RecentWindow, otherwise
// exp(-(battlesAgo-RecentWindow)/DecayScale).
func Weight(battlesAgo int) float64 {
	if battlesAgo < RecentWindow {
		return 1.0
	}
	return math.Exp(-float64(battlesAgo-RecentWindow) / DecayScale)
}

// Score recomputes all four scores from scratch. entries must be ordered
// oldest first. The result depends only on its arguments.
//
// Postcondition: every field of the result is >= 0.
func Score(entries []Entry, injuries []injury.Injury) Scores {
	var ce, ad, tr float64
	n := len(entries)
	for i, e := range entries {
		w := Weight(n - i - 1)
		ce += w * experience(e)
		ad += w * effectiveMoveGain * float64(e.EffectiveMoves())
		tr += w * trauma(e)
	}
	return Scores{
		CombatExperience: nonNegative(ce),
		Adaptation:       nonNegative(ad),
		Trauma:           nonNegative(tr),
		InjurySeverity:   nonNegative(injury.TotalSeverity(injuries)),
	}
}

// nonNegative maps NaN and negative values to zero.
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func experience(e Entry) float64 {
	var v float64
	switch e.Outcome {
	case Win:
		v = winExperience
	case Retreat:
		v = retreatExperience
	case Faint:
		v = faintExperience
	}
	v += tacticExperience * float64(e.UniqueTactics())
	v += veterancyFactor * math.Max(0, finite(e.OpponentVeterancy)-1)
	return v
}

func trauma(e Entry) float64 {
	v := damageTrauma * finite(e.DamageTaken)
	switch e.Outcome {
	case Killed:
		v += killedTrauma
	case Faint:
		v += faintTrauma
	}
	for _, tag := range e.StatusEvents {
		switch tag {
		case TagLimbLost, TagBlinded:
			v += severeTagTrauma
		case TagStagger:
			v += staggerTagTrauma
		}
	}
	return v
}
