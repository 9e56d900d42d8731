// Package combatant implements the party member entity: identity, hidden
// stats, vitality lifecycle, permanent injuries and the battle history that
// drives its veteran scores.
package combatant

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/veteran/internal/game/combat"
	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/injury"
	"github.com/cory-johannsen/veteran/internal/game/move"
	"github.com/cory-johannsen/veteran/internal/game/veteran"
)

// Lifecycle constants.
const (
	MaxVitality     = 100.0
	DefaultBaseStat = 50
	DefaultLocation = "body"
	// A hit kills only when it deals at least DeathBlowDamage and leaves raw
	// vitality at or below DeathOverkill. Every other knockout is a faint.
	DeathBlowDamage = 50.0
	DeathOverkill   = -10.0
)

// ErrHealOnDead is logged when healing is attempted on a dead combatant.
var ErrHealOnDead = errors.New("cannot heal a dead combatant")

// Combatant is a party member. It is not safe for concurrent use: the battle
// loop owning it must resolve one move fully before the next.
type Combatant struct {
	id           string
	species      string
	nickname     string
	ageYears     int
	base         combat.Stats
	vitality     float64
	state        LifeState
	injuries     []injury.Injury
	log          *veteran.Log
	totalBattles int
	immune       bool
	scores       veteran.Scores

	policy *injury.Policy
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Combatant at construction.
type Option func(*Combatant)

// WithNickname sets the display name. Empty keeps the species name.
func WithNickname(name string) Option {
	return func(c *Combatant) {
		if name != "" {
			c.nickname = name
		}
	}
}

// WithID overrides the generated UUID.
func WithID(id string) Option {
	return func(c *Combatant) { c.id = id }
}

// WithAge sets the age in years at capture.
func WithAge(years int) Option {
	return func(c *Combatant) { c.ageYears = years }
}

// WithBaseStats overrides the default hidden stats.
func WithBaseStats(s combat.Stats) Option {
	return func(c *Combatant) { c.base = s }
}

// WithVeteranImmunity grants Will of the Struggler.
func WithVeteranImmunity() Option {
	return func(c *Combatant) { c.immune = true }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Combatant) { c.logger = l }
}

// WithClock sets the clock used to timestamp battle entries.
func WithClock(now func() time.Time) Option {
	return func(c *Combatant) { c.now = now }
}

// New creates an Active combatant at full vitality.
//
// Precondition: species must be non-empty; src must be non-nil.
// Postcondition: Returns a Combatant with an empty log and no injuries.
func New(species string, src dice.Source, opts ...Option) *Combatant {
	if species == "" {
		panic("combatant.New: precondition violated: species must be non-empty")
	}
	c := &Combatant{
		id:       uuid.NewString(),
		species:  species,
		nickname: species,
		base:     combat.Stats{Attack: DefaultBaseStat, Defense: DefaultBaseStat, Speed: DefaultBaseStat},
		vitality: MaxVitality,
		state:    Active,
		log:      veteran.NewLog(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.policy = injury.NewPolicy(src, c.logger)
	c.logger.Debug("created combatant",
		zap.String("id", c.id),
		zap.String("nickname", c.nickname),
		zap.String("species", c.species),
		zap.Int("age_years", c.ageYears),
	)
	return c
}

// ID returns the persistence identifier.
func (c *Combatant) ID() string { return c.id }

// Species returns the species name.
func (c *Combatant) Species() string { return c.species }

// Name returns the display name (nickname).
func (c *Combatant) Name() string { return c.nickname }

// AgeYears returns the age at capture.
func (c *Combatant) AgeYears() int { return c.ageYears }

// BaseStats returns the hidden base stats. Injuries never change them.
func (c *Combatant) BaseStats() combat.Stats { return c.base }

// Modifiers sums the stat shifts of every injury.
func (c *Combatant) Modifiers() injury.Modifiers { return injury.Aggregate(c.injuries) }

// EffectiveStats returns base stats with injury modifiers applied.
func (c *Combatant) EffectiveStats() combat.Stats {
	m := c.Modifiers()
	return combat.Stats{
		Attack:  c.base.Attack + m.Attack,
		Defense: c.base.Defense + m.Defense,
		Speed:   c.base.Speed + m.Speed,
	}
}

// LifeState returns the lifecycle state.
func (c *Combatant) LifeState() LifeState { return c.state }

// IsDead reports whether the combatant is dead.
func (c *Combatant) IsDead() bool { return c.state == Dead }

// IsConscious reports whether the combatant can still fight.
func (c *Combatant) IsConscious() bool { return c.state == Active }

// HasVeteranImmunity reports whether the combatant holds Will of the Struggler.
func (c *Combatant) HasVeteranImmunity() bool { return c.immune }

// GrantVeteranImmunity awards Will of the Struggler.
func (c *Combatant) GrantVeteranImmunity() {
	c.immune = true
	c.logger.Info("veteran immunity granted", zap.String("nickname", c.nickname))
}

// Injuries returns a copy of the injuries in creation order.
func (c *Combatant) Injuries() []injury.Injury {
	out := make([]injury.Injury, len(c.injuries))
	copy(out, c.injuries)
	return out
}

// BattleLog returns copies of the retained entries, oldest first.
func (c *Combatant) BattleLog() []veteran.Entry { return c.log.Entries() }

// TotalBattles counts every battle ever logged, including evicted ones.
func (c *Combatant) TotalBattles() int { return c.totalBattles }

// Scores returns the derived veteran scores.
func (c *Combatant) Scores() veteran.Scores { return c.scores }

// EffectiveVeteranScore returns the net veteran score. It may be negative.
func (c *Combatant) EffectiveVeteranScore() float64 { return c.scores.Effective() }

// DescriptiveState returns the only vitality signal the player ever sees.
func (c *Combatant) DescriptiveState() string {
	return Describe(c.state, c.vitality, c.injuries)
}

// InjuryNotes returns the comma-joined short notes of every injury.
func (c *Combatant) InjuryNotes() string { return InjuryNotes(c.injuries) }

// Info returns the info panel text: name and descriptive state.
func (c *Combatant) Info() string {
	return fmt.Sprintf("%s\nState: %s", c.nickname, c.DescriptiveState())
}

// VitalityPercent exposes the hidden vitality to persistence and to the
// battle driver's retreat check. It must never reach the player.
func (c *Combatant) VitalityPercent() float64 { return c.vitality }

// String returns "nickname (species) - Active|Fainted|Dead - Battles: n".
func (c *Combatant) String() string {
	status := "Active"
	switch c.state {
	case Dead:
		status = "Dead"
	case Unconscious:
		status = "Fainted"
	}
	return fmt.Sprintf("%s (%s) - %s - Battles: %d", c.nickname, c.species, status, c.totalBattles)
}

// DamageOutcome describes one application of damage.
type DamageOutcome struct {
	AppliedDamage       float64
	Element             move.Element
	Location            string
	NewDescriptiveState string
	LifeState           LifeState
	// Injury is non-nil when the hit left a permanent injury.
	Injury *injury.Injury
}

// TakeDamage applies a single hit.
//
// Negative or NaN amounts are treated as zero. Damage to a dead combatant is
// a logged no-op. The injury check sees the combatant as it was before any
// knockout from this hit.
//
// Postcondition: 0 <= vitality <= MaxVitality; if the unclamped vitality is
// <= 0 the state is Dead when amount >= DeathBlowDamage and the unclamped
// vitality <= DeathOverkill, otherwise Unconscious.
func (c *Combatant) TakeDamage(amount float64, element move.Element, location string) DamageOutcome {
	if amount < 0 || math.IsNaN(amount) {
		amount = 0
	}
	if location == "" {
		location = DefaultLocation
	}
	if c.state == Dead {
		c.logger.Debug("damage ignored on dead combatant",
			zap.String("nickname", c.nickname),
			zap.Float64("amount", amount),
		)
		return DamageOutcome{
			Element:             element,
			Location:            location,
			NewDescriptiveState: c.DescriptiveState(),
			LifeState:           c.state,
		}
	}

	raw := c.vitality - amount
	c.vitality = clamp(raw)

	out := DamageOutcome{AppliedDamage: amount, Element: element, Location: location}
	if in, ok := c.policy.Check(amount, element, location, c); ok {
		c.injuries = append(c.injuries, in)
		c.rescore()
		out.Injury = &in
	}

	if raw <= 0 {
		if amount >= DeathBlowDamage && raw <= DeathOverkill {
			c.state = Dead
			c.logger.Warn("combatant died in battle",
				zap.String("nickname", c.nickname),
				zap.Float64("amount", amount),
				zap.Float64("raw_vitality", raw),
			)
		} else {
			c.state = Unconscious
			c.logger.Info("combatant fainted", zap.String("nickname", c.nickname))
		}
	}

	out.LifeState = c.state
	out.NewDescriptiveState = c.DescriptiveState()
	return out
}

// Heal restores vitality and revives an unconscious combatant.
//
// Postcondition: Returns false and changes nothing when Dead. Otherwise
// vitality <= MaxVitality and, if vitality > 0, the state is Active.
func (c *Combatant) Heal(amount float64) bool {
	if c.state == Dead {
		c.logger.Warn("heal rejected",
			zap.String("nickname", c.nickname),
			zap.Error(ErrHealOnDead),
		)
		return false
	}
	if amount < 0 || math.IsNaN(amount) {
		amount = 0
	}
	c.vitality = clamp(c.vitality + amount)
	if c.vitality > 0 {
		c.state = Active
	}
	c.logger.Info("combatant healed", zap.String("nickname", c.nickname))
	return true
}

// AddBattleEntry stamps e with the next battle index and the current time,
// appends it to the bounded log and recomputes the veteran scores.
//
// Postcondition: TotalBattles() is incremented by one.
func (c *Combatant) AddBattleEntry(e veteran.Entry) {
	e.BattleIndex = c.totalBattles
	e.Timestamp = c.now()
	evicted := c.log.Append(e)
	c.totalBattles++
	c.rescore()
	c.logger.Info("battle log updated",
		zap.String("nickname", c.nickname),
		zap.Stringer("outcome", e.Outcome),
		zap.Int("total_battles", c.totalBattles),
		zap.Bool("evicted_oldest", evicted),
	)
}

func (c *Combatant) rescore() {
	c.scores = veteran.Score(c.log.Entries(), c.injuries)
	c.logger.Debug("veteran scores recomputed",
		zap.String("nickname", c.nickname),
		zap.Float64("combat_experience", c.scores.CombatExperience),
		zap.Float64("adaptation", c.scores.Adaptation),
		zap.Float64("trauma", c.scores.Trauma),
		zap.Float64("injury_severity", c.scores.InjurySeverity),
	)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(MaxVitality, v))
}
