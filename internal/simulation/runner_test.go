package simulation_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/veteran/internal/config"
	"github.com/cory-johannsen/veteran/internal/game/combat"
	"github.com/cory-johannsen/veteran/internal/game/combatant"
	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/move"
	"github.com/cory-johannsen/veteran/internal/game/veteran"
	"github.com/cory-johannsen/veteran/internal/simulation"
)

func singleMoveCatalog(t *testing.T, power int) *move.Catalog {
	t.Helper()
	cat, err := move.NewCatalog(&move.Move{
		Name: "Strike", Element: move.Normal, Category: move.CategoryPhysical, BasePower: power, Accuracy: 1.0,
	})
	require.NoError(t, err)
	return cat
}

func simConfig(battles, maxTurns int) config.SimulationConfig {
	return config.SimulationConfig{
		Battles:           battles,
		MaxTurns:          maxTurns,
		MovesPerCombatant: 4,
		Environment:       []string{"arena"},
	}
}

// With an empty SequenceSource every move hits at 0.85 variance.
func newRunner(t *testing.T, power int, cfg config.SimulationConfig, out *bytes.Buffer) (*simulation.Runner, dice.Source) {
	t.Helper()
	src := dice.NewSequenceSource()
	return simulation.NewRunner(singleMoveCatalog(t, power), move.DefaultTypeChart(), src, nil, cfg, out, zap.NewNop()), src
}

func TestRun_WinsAndReplacesDeadRival(t *testing.T) {
	var out bytes.Buffer
	r, src := newRunner(t, 300, simConfig(3, 5), &out)
	player := combatant.New("Charmander", src, combatant.WithNickname("Blaze"))
	rival := combatant.New("Rattata", src)
	spawned := 0
	newRival := func() *combatant.Combatant {
		spawned++
		return combatant.New("Rattata", src)
	}

	last, sum, err := r.Run(context.Background(), player, rival, newRival)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Battles)
	assert.Equal(t, 3, sum.Outcomes[veteran.Win])
	assert.Equal(t, 1, sum.RivalsKilled)
	assert.Equal(t, 1, spawned)
	assert.NotSame(t, rival, last)
	assert.True(t, rival.IsDead())
	assert.False(t, sum.PlayerDied)

	assert.Equal(t, 3, player.TotalBattles())
	assert.Equal(t, 100.0, player.VitalityPercent())
	assert.Equal(t, []string{"arena"}, player.BattleLog()[0].Environment)
	assert.Contains(t, out.String(), "=== Battle 1: Blaze vs Rattata ===")
	assert.Contains(t, out.String(), "Enemy Rattata has been defeated!")
}

func TestRun_RetreatsAtTurnLimit(t *testing.T) {
	var out bytes.Buffer
	r, src := newRunner(t, 1, simConfig(1, 2), &out)
	player := combatant.New("Squirtle", src)
	rival := combatant.New("Pidgey", src)

	_, sum, err := r.Run(context.Background(), player, rival, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Outcomes[veteran.Retreat])
	assert.Contains(t, out.String(), "You retreat from battle.")
	assert.Equal(t, veteran.Retreat, player.BattleLog()[0].Outcome)
	assert.Len(t, player.BattleLog()[0].MovesUsed, 2)
}

func TestRun_StopsWhenPlayerDies(t *testing.T) {
	var out bytes.Buffer
	r, src := newRunner(t, 100, simConfig(3, 5), &out)
	player := combatant.New("Oddish", src,
		combatant.WithNickname("Sprout"),
		combatant.WithBaseStats(combat.Stats{Attack: 10, Defense: 50, Speed: 30}),
	)
	player.TakeDamage(50, move.Normal, "")
	player.TakeDamage(20, move.Normal, "")
	rival := combatant.New("Gengar", src, combatant.WithBaseStats(combat.Stats{Attack: 200, Defense: 50, Speed: 90}))

	_, sum, err := r.Run(context.Background(), player, rival, nil)
	require.NoError(t, err)
	assert.True(t, sum.PlayerDied)
	assert.Equal(t, 1, sum.Battles)
	assert.Equal(t, 1, sum.Outcomes[veteran.Killed])
	assert.True(t, player.IsDead())
	assert.Contains(t, out.String(), "Sprout has fallen... permanently.")
	assert.Contains(t, out.String(), "Sprout's journey ends here.")
}

func TestRun_DeadPlayerFightsNoBattles(t *testing.T) {
	var out bytes.Buffer
	r, src := newRunner(t, 300, simConfig(3, 5), &out)
	player := combatant.New("Rattata", src, combatant.WithNickname("Scrap"))
	player.TakeDamage(50, move.Normal, "")
	player.TakeDamage(45, move.Normal, "")
	player.TakeDamage(60, move.Normal, "")
	require.True(t, player.IsDead())
	traumaBefore := player.Scores().Trauma
	rival := combatant.New("Pidgey", src)

	last, sum, err := r.Run(context.Background(), player, rival, nil)
	require.NoError(t, err)
	assert.True(t, sum.PlayerDied)
	assert.Zero(t, sum.Battles)
	assert.Empty(t, sum.Outcomes)
	assert.Same(t, rival, last)
	assert.Zero(t, player.TotalBattles())
	assert.Empty(t, player.BattleLog())
	assert.Equal(t, traumaBefore, player.Scores().Trauma)
	assert.Contains(t, out.String(), "Scrap has already fallen and cannot battle.")
	assert.NotContains(t, out.String(), "=== Battle")
}

func TestRun_CancelledContext(t *testing.T) {
	var out bytes.Buffer
	r, src := newRunner(t, 300, simConfig(3, 5), &out)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, sum, err := r.Run(ctx, combatant.New("Eevee", src), combatant.New("Rattata", src), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Battles)
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	c := combatant.New("Charmander", dice.NewSequenceSource(0.95), combatant.WithNickname("Blaze"), combatant.WithVeteranImmunity())
	c.TakeDamage(96, move.Normal, "tail")
	simulation.Report(&out, c)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Blaze (Charmander) - Active - Battles: 0", lines[0])
	assert.Equal(t, "  State: About to fall — retreat NOW — missing a limb", lines[1])
	assert.Contains(t, lines[2], "Veteran score: -50.0")
	assert.Equal(t, "  Will of the Struggler", lines[3])
	assert.Equal(t, "  - Lost tail to catastrophic damage (catastrophic)", lines[4])
}
