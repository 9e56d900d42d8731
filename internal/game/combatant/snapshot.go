package combatant

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/veteran/internal/game/combat"
	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/injury"
	"github.com/cory-johannsen/veteran/internal/game/veteran"
)

// ErrInvalidSnapshot is wrapped by Restore for every rejected snapshot.
var ErrInvalidSnapshot = errors.New("invalid combatant snapshot")

// Snapshot is the persisted form of a Combatant. Derived scores are not
// stored; Restore recomputes them.
type Snapshot struct {
	ID                 string          `json:"id"`
	Species            string          `json:"species"`
	Nickname           string          `json:"nickname"`
	AgeYears           int             `json:"age_years"`
	BaseStats          combat.Stats    `json:"base_stats"`
	VitalityPercent    float64         `json:"vitality_percent"`
	LifeState          LifeState       `json:"life_state"`
	Injuries           []injury.Injury `json:"injuries"`
	BattleLog          []veteran.Entry `json:"battle_log"`
	TotalBattles       int             `json:"total_battles"`
	HasVeteranImmunity bool            `json:"has_veteran_immunity"`
}

// Snapshot captures the persisted fields. The battle log is oldest first.
func (c *Combatant) Snapshot() Snapshot {
	return Snapshot{
		ID:                 c.id,
		Species:            c.species,
		Nickname:           c.nickname,
		AgeYears:           c.ageYears,
		BaseStats:          c.base,
		VitalityPercent:    c.vitality,
		LifeState:          c.state,
		Injuries:           c.Injuries(),
		BattleLog:          c.log.Entries(),
		TotalBattles:       c.totalBattles,
		HasVeteranImmunity: c.immune,
	}
}

// Validate checks a snapshot against the combatant invariants.
func (s Snapshot) Validate() error {
	var errs []string
	if s.Species == "" {
		errs = append(errs, "species must not be empty")
	}
	if s.VitalityPercent < 0 || s.VitalityPercent > MaxVitality {
		errs = append(errs, fmt.Sprintf("vitality_percent must be in [0, 100], got %v", s.VitalityPercent))
	}
	if s.LifeState == Dead && s.VitalityPercent > 0 {
		errs = append(errs, "a dead combatant must have no vitality")
	}
	if len(s.BattleLog) > veteran.Capacity {
		errs = append(errs, fmt.Sprintf("battle_log holds %d entries, capacity is %d", len(s.BattleLog), veteran.Capacity))
	}
	if s.TotalBattles < len(s.BattleLog) {
		errs = append(errs, fmt.Sprintf("total_battles %d is less than logged battles %d", s.TotalBattles, len(s.BattleLog)))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(errs, "; "))
	}
	return nil
}

// Restore rebuilds a Combatant from a snapshot and recomputes its scores.
// An Active snapshot with no vitality is restored as Unconscious.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a Combatant whose Snapshot() equals s (after that
// normalization), or an error wrapping ErrInvalidSnapshot.
func Restore(s Snapshot, src dice.Source, opts ...Option) (*Combatant, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	base := []Option{WithNickname(s.Nickname), WithAge(s.AgeYears)}
	if s.ID != "" {
		base = append(base, WithID(s.ID))
	}
	if s.BaseStats != (combat.Stats{}) {
		base = append(base, WithBaseStats(s.BaseStats))
	}
	if s.HasVeteranImmunity {
		base = append(base, WithVeteranImmunity())
	}
	c := New(s.Species, src, append(base, opts...)...)

	c.vitality = s.VitalityPercent
	c.state = s.LifeState
	if c.state == Active && c.vitality <= 0 {
		c.state = Unconscious
	}
	c.injuries = append([]injury.Injury(nil), s.Injuries...)
	for _, e := range s.BattleLog {
		c.log.Append(e)
	}
	c.totalBattles = s.TotalBattles
	c.rescore()
	c.logger.Debug("restored combatant",
		zap.String("id", c.id),
		zap.Int("logged_battles", c.log.Len()),
		zap.Int("injuries", len(c.injuries)),
	)
	return c, nil
}
