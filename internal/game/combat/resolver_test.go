package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/veteran/internal/game/combat"
	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/move"
)

var even = combat.Stats{Attack: 50, Defense: 50, Speed: 50}

func tackle() *move.Move {
	m, _ := move.DefaultCatalog().Get("tackle")
	return m
}

func TestResolveMove_MissWhenDrawExceedsAccuracy(t *testing.T) {
	src := dice.NewSequenceSource(0.96).SetInts(1)
	r := combat.ResolveMove(tackle(), even, even, "normal", move.DefaultTypeChart(), src)

	assert.False(t, r.IsHit())
	assert.Equal(t, combat.KindMiss, r.Kind)
	require.NotNil(t, r.Miss)
	assert.Nil(t, r.Hit)
	assert.Equal(t, 0.0, r.Damage())
	assert.Equal(t, "Tackle goes wide!", r.Narrative())
	assert.Equal(t, 1, src.FloatDraws(), "a miss must not draw variance")
}

func TestResolveMove_HitWhenDrawEqualsAccuracy(t *testing.T) {
	src := dice.NewSequenceSource(0.95, 0.0)
	r := combat.ResolveMove(tackle(), even, even, "normal", move.DefaultTypeChart(), src)
	require.True(t, r.IsHit())
	// 40 * (50/50) * 0.4 * 1.0 * 0.85
	assert.InDelta(t, 13.6, r.Damage(), 1e-9)
	assert.Equal(t, combat.TierNeutral, r.Hit.Tier)
	assert.Equal(t, "A solid Tackle!", r.Narrative())
	assert.NoError(t, r.Hit.Note)
}

func TestResolveMove_DamageFormula(t *testing.T) {
	m := &move.Move{Name: "Ember", Element: move.Fire, Category: move.CategorySpecial, BasePower: 40, Accuracy: 1}
	attacker := combat.Stats{Attack: 60, Defense: 40}
	defender := combat.Stats{Attack: 40, Defense: 30}
	src := dice.NewSequenceSource(0.0, 0.5)

	r := combat.ResolveMove(m, attacker, defender, "grass", move.DefaultTypeChart(), src)
	require.True(t, r.IsHit())
	want := 40.0 * (60.0 / 30.0) * 0.4 * 2.0 * (0.85 + 0.15*0.5)
	assert.InDelta(t, want, r.Damage(), 1e-9)
	assert.Equal(t, 2.0, r.Effectiveness())
	assert.Equal(t, combat.TierDevastating, r.Hit.Tier)
	assert.Equal(t, "A solid Ember! It's devastatingly effective!", r.Narrative())
}

func TestResolveMove_SpecialUsesAttackAndDefense(t *testing.T) {
	phys := &move.Move{Name: "P", Element: move.Normal, Category: move.CategoryPhysical, BasePower: 50, Accuracy: 1}
	special := &move.Move{Name: "S", Element: move.Normal, Category: move.CategorySpecial, BasePower: 50, Accuracy: 1}
	atk := combat.Stats{Attack: 70, Defense: 10}
	def := combat.Stats{Attack: 10, Defense: 35}
	chart := move.DefaultTypeChart()

	rp := combat.ResolveMove(phys, atk, def, "normal", chart, dice.NewSequenceSource(0, 0.3))
	rs := combat.ResolveMove(special, atk, def, "normal", chart, dice.NewSequenceSource(0, 0.3))
	assert.Equal(t, rp.Damage(), rs.Damage())
}

func TestResolveMove_StatusMoveDealsNoDamage(t *testing.T) {
	growl := &move.Move{Name: "Growl", Element: move.Normal, Category: move.CategoryStatus, Accuracy: 1}
	src := dice.NewSequenceSource(0.0)
	r := combat.ResolveMove(growl, even, even, "normal", move.DefaultTypeChart(), src)

	require.True(t, r.IsHit())
	assert.Equal(t, 0.0, r.Damage())
	assert.True(t, errors.Is(r.Hit.Note, combat.ErrInvalidMoveCategory))
	assert.Equal(t, 1, src.FloatDraws(), "status moves must not draw variance")
}

func TestResolveMove_UnknownElementIsNeutral(t *testing.T) {
	m := &move.Move{Name: "Star", Element: "cosmic", Category: move.CategoryPhysical, BasePower: 40, Accuracy: 1}
	r := combat.ResolveMove(m, even, even, "normal", move.DefaultTypeChart(), dice.NewSequenceSource(0, 0))
	require.True(t, r.IsHit())
	assert.Equal(t, 1.0, r.Effectiveness())
	assert.ErrorIs(t, r.Hit.Note, move.ErrUnknownElement)
}

func TestResolveMove_NonPositiveDefenseDoesNotPanic(t *testing.T) {
	broken := combat.Stats{Attack: 50, Defense: -20}
	r := combat.ResolveMove(tackle(), even, broken, "normal", move.DefaultTypeChart(), dice.NewSequenceSource(0, 0))
	require.True(t, r.IsHit())
	assert.InDelta(t, 40*50*0.4*0.85, r.Damage(), 1e-9)
}

func TestResolveMove_Property_DamageBounds(t *testing.T) {
	chart := move.DefaultTypeChart()
	moves := move.DefaultCatalog().All()
	rapid.Check(t, func(rt *rapid.T) {
		m := moves[rapid.IntRange(0, len(moves)-1).Draw(rt, "move")]
		atk := combat.Stats{Attack: rapid.IntRange(1, 200).Draw(rt, "atk")}
		def := combat.Stats{Defense: rapid.IntRange(1, 200).Draw(rt, "def")}
		class := rapid.SampledFrom([]string{"normal", "fire", "water", "grass", "psychic"}).Draw(rt, "class")
		seed := rapid.Uint64().Draw(rt, "seed")

		r := combat.ResolveMove(m, atk, def, class, chart, dice.NewSeededSource(seed))
		if !r.IsHit() {
			assert.Equal(rt, 0.0, r.Damage())
			assert.NotEmpty(rt, r.Narrative())
			return
		}
		maxDmg := float64(m.BasePower) * float64(atk.Attack) / float64(def.Defense) * 0.4 * r.Effectiveness()
		assert.GreaterOrEqual(rt, r.Damage(), maxDmg*combat.VarianceMin-1e-9)
		assert.LessOrEqual(rt, r.Damage(), maxDmg+1e-9)
	})
}

func TestResolveMove_Property_Reproducible(t *testing.T) {
	chart := move.DefaultTypeChart()
	m, _ := move.DefaultCatalog().Get("flamethrower")
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		a := combat.ResolveMove(m, even, even, "grass", chart, dice.NewSeededSource(seed))
		b := combat.ResolveMove(m, even, even, "grass", chart, dice.NewSeededSource(seed))
		assert.Equal(rt, a.Kind, b.Kind)
		assert.Equal(rt, a.Damage(), b.Damage())
		assert.Equal(rt, a.Narrative(), b.Narrative())
	})
}
