package combat

import (
	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/move"
)

// ResultKind tags a Result as a hit or a miss.
type ResultKind int

const (
	KindMiss ResultKind = iota
	KindHit
)

// Hit is the payload of a move that connected.
type Hit struct {
	// Effectiveness is the type chart multiplier. Never shown to the player.
	Effectiveness float64
	// Tier is the narrative bucket for Effectiveness.
	Tier Tier
	// Damage is the hidden vitality-percent damage. Zero for status moves.
	Damage float64
	// Text is the flavor line, with the tier sentence appended when non-neutral.
	Text string
	// Note explains a non-fatal fallback: ErrInvalidMoveCategory,
	// move.ErrUnknownElement or move.ErrUnknownSpeciesClass. Nil otherwise.
	Note error
}

// Miss is the payload of a move that failed its accuracy check.
type Miss struct {
	Text string
}

// Result is the outcome of resolving one move. Exactly one of Hit and Miss is
// non-nil, matching Kind.
type Result struct {
	Move *move.Move
	Kind ResultKind
	Hit  *Hit
	Miss *Miss
}

// IsHit reports whether the move connected.
func (r Result) IsHit() bool { return r.Kind == KindHit }

// Damage returns the hit damage, or zero for a miss.
//
// Postcondition: Returns >= 0.
func (r Result) Damage() float64 {
	if r.Hit == nil {
		return 0
	}
	return r.Hit.Damage
}

// Effectiveness returns the hit multiplier, or the neutral multiplier for a miss.
func (r Result) Effectiveness() float64 {
	if r.Hit == nil {
		return move.NeutralMultiplier
	}
	return r.Hit.Effectiveness
}

// Narrative returns the player-facing text for either variant.
func (r Result) Narrative() string {
	switch r.Kind {
	case KindHit:
		return r.Hit.Text
	default:
		return r.Miss.Text
	}
}

// ResolveMove resolves m from attacker against defender.
//
// Draw order on src: one Float64 for accuracy; on a miss one Intn for the
// miss line. On a hit, one Float64 for damage variance (skipped for status
// moves), then one Intn for the hit line.
//
// Physical and special moves both use Attack against Defense.
//
// Precondition: m, chart and src must be non-nil.
// Postcondition: Returns a Result whose payload matches Kind; Damage() >= 0.
func ResolveMove(m *move.Move, attacker, defender Stats, defenderClass string, chart *move.TypeChart, src dice.Source) Result {
	if src.Float64() > m.Accuracy {
		return Result{
			Move: m,
			Kind: KindMiss,
			Miss: &Miss{Text: dice.Choice(src, m.MissNarratives())},
		}
	}

	mult, note := chart.Lookup(m.Element, defenderClass)
	tier := TierFor(mult)

	var damage float64
	if m.Category == move.CategoryStatus {
		note = ErrInvalidMoveCategory
	} else {
		atk, def := relevantStats(attacker, defender)
		damage = float64(m.BasePower) * (atk / def) * DamageScale * mult
		damage *= dice.Uniform(src, VarianceMin, VarianceMax)
	}

	text := dice.Choice(src, m.HitNarratives())
	if extra := tier.Narrative(); extra != "" {
		text += " " + extra
	}

	return Result{
		Move: m,
		Kind: KindHit,
		Hit: &Hit{
			Effectiveness: mult,
			Tier:          tier,
			Damage:        damage,
			Text:          text,
			Note:          note,
		},
	}
}

// relevantStats picks the stat pair for a damaging move. Injury modifiers can
// push stats below zero, so the attacker floors at 0 and the defender at 1.
func relevantStats(attacker, defender Stats) (float64, float64) {
	atk := float64(attacker.Attack)
	if atk < 0 {
		atk = 0
	}
	def := float64(defender.Defense)
	if def < 1 {
		def = 1
	}
	return atk, def
}
