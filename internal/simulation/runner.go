// Package simulation runs consecutive headless battles between a player
// combatant and a rival, healing survivors in between, and reports every turn
// the way the battle screen would.
package simulation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/veteran/internal/config"
	"github.com/cory-johannsen/veteran/internal/game/battle"
	"github.com/cory-johannsen/veteran/internal/game/combatant"
	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/move"
	"github.com/cory-johannsen/veteran/internal/game/veteran"
	"github.com/cory-johannsen/veteran/internal/observability"
)

// Summary tallies a run.
type Summary struct {
	Battles    int
	Outcomes   map[veteran.Outcome]int
	PlayerDied bool
	// RivalsKilled counts rivals replaced after dying.
	RivalsKilled int
}

// Runner drives a simulation run.
type Runner struct {
	catalog  *move.Catalog
	chart    *move.TypeChart
	src      dice.Source
	selector battle.MoveSelector
	cfg      config.SimulationConfig
	out      io.Writer
	logger   *zap.Logger
}

// NewRunner creates a Runner. A nil selector leaves the rival on random moves.
//
// Precondition: catalog, chart, src and out must be non-nil.
func NewRunner(catalog *move.Catalog, chart *move.TypeChart, src dice.Source, selector battle.MoveSelector, cfg config.SimulationConfig, out io.Writer, logger *zap.Logger) *Runner {
	if catalog == nil || chart == nil || src == nil || out == nil {
		panic("simulation.NewRunner: precondition violated: catalog, chart, src and out must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		catalog:  catalog,
		chart:    chart,
		src:      src,
		selector: selector,
		cfg:      cfg,
		out:      out,
		logger:   logger,
	}
}

// Run fights up to cfg.Battles battles. The player picks random moves and
// retreats when cfg.MaxTurns is reached. A rival that dies is replaced by
// newRival(). The run stops early if the player dies or ctx is cancelled.
// A player that is already dead fights no battles.
//
// Postcondition: Every finished battle is recorded in the player's log.
func (r *Runner) Run(ctx context.Context, player, rival *combatant.Combatant, newRival func() *combatant.Combatant) (*combatant.Combatant, Summary, error) {
	sum := Summary{Outcomes: make(map[veteran.Outcome]int)}
	pick := battle.NewRandomSelector(r.src)

	for i := 0; i < r.cfg.Battles; i++ {
		if err := ctx.Err(); err != nil {
			return rival, sum, fmt.Errorf("simulation interrupted after %d battles: %w", sum.Battles, err)
		}
		if player.IsDead() {
			sum.PlayerDied = true
			fmt.Fprintf(r.out, "%s has already fallen and cannot battle.\n", player.Name())
			break
		}
		if rival.IsDead() {
			rival = newRival()
			sum.RivalsKilled++
		}

		logger := observability.BattleLogger(r.logger, i+1, player.Name(), rival.Name())
		playerMoves := r.catalog.Sample(r.cfg.MovesPerCombatant, r.src)
		rivalMoves := r.catalog.Sample(r.cfg.MovesPerCombatant, r.src)
		opts := []battle.Option{battle.WithEnvironment(r.cfg.Environment...)}
		if r.selector != nil {
			opts = append(opts, battle.WithSelector(r.selector))
		}
		b := battle.New(player, rival, playerMoves, rivalMoves, r.chart, r.src, logger, opts...)

		fmt.Fprintf(r.out, "=== Battle %d: %s vs %s ===\n", i+1, player.Name(), rival.Name())
		fmt.Fprintf(r.out, "%s knows %s\n", player.Name(), moveNames(playerMoves))
		for turn := 0; turn < r.cfg.MaxTurns && !b.Over(); turn++ {
			m := pick.Select(player, rival, playerMoves)
			report, err := b.PlayerMove(m.Name)
			if err != nil {
				return rival, sum, fmt.Errorf("battle %d turn %d: %w", i+1, turn+1, err)
			}
			for _, ev := range report.Events {
				fmt.Fprintln(r.out, ev.Narrative)
			}
		}
		if !b.Over() {
			fmt.Fprintln(r.out, b.Retreat())
		} else {
			fmt.Fprintln(r.out, b.Message())
		}
		if err := b.Finish(); err != nil {
			return rival, sum, fmt.Errorf("recording battle %d: %w", i+1, err)
		}

		outcome, _ := b.Outcome()
		sum.Battles++
		sum.Outcomes[outcome]++
		logger.Info("battle finished", zap.Stringer("outcome", outcome))

		if player.IsDead() {
			sum.PlayerDied = true
			fmt.Fprintf(r.out, "%s's journey ends here.\n", player.Name())
			break
		}
		player.Heal(combatant.MaxVitality)
		rival.Heal(combatant.MaxVitality)
	}
	return rival, sum, nil
}

// Report writes the player-facing summary of c: descriptive state, veteran
// scores, and injuries.
func Report(w io.Writer, c *combatant.Combatant) {
	s := c.Scores()
	fmt.Fprintln(w, c.String())
	fmt.Fprintf(w, "  State: %s\n", c.DescriptiveState())
	fmt.Fprintf(w, "  Veteran score: %.1f (experience %.1f, adaptation %.1f, trauma %.1f, injuries %.1f)\n",
		s.Effective(), s.CombatExperience, s.Adaptation, s.Trauma, s.InjurySeverity)
	if c.HasVeteranImmunity() {
		fmt.Fprintln(w, "  Will of the Struggler")
	}
	for _, in := range c.Injuries() {
		fmt.Fprintf(w, "  - %s (%s)\n", in.Description, in.Severity)
	}
}

func moveNames(moves []*move.Move) string {
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.Name
	}
	return strings.Join(names, ", ")
}
