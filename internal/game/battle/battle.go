// Package battle drives a one-on-one battle between a player combatant and an
// opponent, turn by turn, and turns the result into a veteran log entry.
package battle

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/veteran/internal/game/combat"
	"github.com/cory-johannsen/veteran/internal/game/combatant"
	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/injury"
	"github.com/cory-johannsen/veteran/internal/game/move"
	"github.com/cory-johannsen/veteran/internal/game/veteran"
)

// Sentinel errors.
var (
	ErrUnknownMove      = errors.New("unknown move")
	ErrBattleOver       = errors.New("battle is over")
	ErrBattleInProgress = errors.New("battle is still in progress")
	ErrAlreadyRecorded  = errors.New("battle already recorded")
)

// DefaultEnvironment tags battles created without WithEnvironment.
const DefaultEnvironment = "training_grounds"

// RetreatVitality is the vitality below which a retreat is a narrow escape.
const RetreatVitality = 20.0

const promptMessage = "What will you do?"

// Actor identifies which side used a move.
type Actor int

const (
	ActorPlayer Actor = iota
	ActorEnemy
)

// String returns "player" or "enemy".
func (a Actor) String() string {
	if a == ActorEnemy {
		return "enemy"
	}
	return "player"
}

// Event records one resolved move.
type Event struct {
	Actor    Actor
	MoveName string
	Result   combat.Result
	// Damage is the defender's outcome. Nil on a miss.
	Damage *combatant.DamageOutcome
	// Staggered is set when the hit moved an active defender into the
	// staggered band.
	Staggered bool
	// Narrative is the text shown to the player for this move.
	Narrative string
}

// TurnReport is everything that happened in response to one player command.
type TurnReport struct {
	Events []Event
	Over   bool
	// Outcome is meaningful only when Over is true.
	Outcome veteran.Outcome
	Message string
}

// Option configures a Battle.
type Option func(*Battle)

// WithSelector replaces the enemy's RandomSelector.
func WithSelector(s MoveSelector) Option {
	return func(b *Battle) { b.selector = s }
}

// WithEnvironment sets the environment tags written to the log entry.
func WithEnvironment(tags ...string) Option {
	return func(b *Battle) { b.environment = tags }
}

// Battle is a single encounter. It is not safe for concurrent use.
type Battle struct {
	player, enemy           *combatant.Combatant
	playerMoves, enemyMoves []*move.Move
	chart                   *move.TypeChart
	src                     dice.Source
	selector                MoveSelector
	environment             []string
	logger                  *zap.Logger

	events   []Event
	over     bool
	outcome  veteran.Outcome
	message  string
	recorded bool
}

// New creates a battle. A battle whose player or enemy is already down is
// over immediately.
//
// Precondition: player, enemy, chart and src must be non-nil; both move lists
// must be non-empty.
// Postcondition: Returns a Battle ready for PlayerMove or Retreat.
func New(player, enemy *combatant.Combatant, playerMoves, enemyMoves []*move.Move, chart *move.TypeChart, src dice.Source, logger *zap.Logger, opts ...Option) *Battle {
	if player == nil || enemy == nil {
		panic("battle.New: precondition violated: combatants must be non-nil")
	}
	if len(playerMoves) == 0 || len(enemyMoves) == 0 {
		panic("battle.New: precondition violated: move lists must be non-empty")
	}
	if chart == nil || src == nil {
		panic("battle.New: precondition violated: chart and src must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Battle{
		player:      player,
		enemy:       enemy,
		playerMoves: playerMoves,
		enemyMoves:  enemyMoves,
		chart:       chart,
		src:         src,
		environment: []string{DefaultEnvironment},
		logger:      logger,
		message:     promptMessage,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.selector == nil {
		b.selector = NewRandomSelector(src)
	}
	b.checkEnd()
	return b
}

// Player returns the player's combatant.
func (b *Battle) Player() *combatant.Combatant { return b.player }

// Enemy returns the opponent.
func (b *Battle) Enemy() *combatant.Combatant { return b.enemy }

// PlayerMoves returns the moves the player may choose from.
func (b *Battle) PlayerMoves() []*move.Move { return b.playerMoves }

// Over reports whether the battle has ended.
func (b *Battle) Over() bool { return b.over }

// Outcome returns the outcome and whether the battle has ended.
func (b *Battle) Outcome() (veteran.Outcome, bool) { return b.outcome, b.over }

// Message returns the latest status line.
func (b *Battle) Message() string { return b.message }

// Events returns every move resolved so far, in order.
func (b *Battle) Events() []Event {
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// PlayerMove resolves the player's move, then the enemy's reply unless the
// battle ended.
//
// Postcondition: Returns ErrBattleOver once the battle has ended, or an error
// wrapping ErrUnknownMove when name is not among the player's moves; in both
// cases nothing changes.
func (b *Battle) PlayerMove(name string) (TurnReport, error) {
	if b.over {
		return TurnReport{}, ErrBattleOver
	}
	m := findMove(b.playerMoves, name)
	if m == nil {
		return TurnReport{}, fmt.Errorf("%w %q", ErrUnknownMove, name)
	}

	var report TurnReport
	b.logger.Info("player move", zap.String("combatant", b.player.Name()), zap.String("move", m.Name))
	report.Events = append(report.Events, b.resolve(ActorPlayer, b.player, b.enemy, m))
	b.checkEnd()

	if !b.over {
		em := b.selector.Select(b.enemy, b.player, b.enemyMoves)
		if em == nil {
			em = b.enemyMoves[0]
		}
		b.logger.Info("enemy move", zap.String("combatant", b.enemy.Name()), zap.String("move", em.Name))
		report.Events = append(report.Events, b.resolve(ActorEnemy, b.enemy, b.player, em))
		b.checkEnd()
	}

	report.Over = b.over
	report.Outcome = b.outcome
	report.Message = b.message
	return report, nil
}

// Retreat ends the battle with a Retreat outcome and returns the retreat
// message. Retreating from a finished battle changes nothing.
func (b *Battle) Retreat() string {
	if b.over {
		return b.message
	}
	if b.player.VitalityPercent() < RetreatVitality {
		b.message = "You carefully retreat, saving your Pokemon from certain death."
	} else {
		b.message = "You retreat from battle. Better to preserve life than risk it all."
	}
	b.over = true
	b.outcome = veteran.Retreat
	b.logger.Info("player retreated", zap.String("combatant", b.player.Name()))
	return b.message
}

// resolve applies m from attacker to defender and records the event.
func (b *Battle) resolve(actor Actor, attacker, defender *combatant.Combatant, m *move.Move) Event {
	res := combat.ResolveMove(m,
		attacker.EffectiveStats(),
		defender.EffectiveStats(),
		b.chart.SpeciesClass(defender.Species()),
		b.chart,
		b.src,
	)
	ev := Event{Actor: actor, MoveName: m.Name, Result: res, Narrative: res.Narrative()}
	if res.IsHit() {
		if res.Hit.Note != nil {
			b.logger.Debug("move resolved with fallback",
				zap.String("move", m.Name),
				zap.Error(res.Hit.Note),
			)
		}
		before := defender.VitalityPercent()
		out := defender.TakeDamage(res.Damage(), m.Element, combatant.DefaultLocation)
		ev.Damage = &out
		ev.Staggered = out.LifeState == combatant.Active &&
			!combatant.InStaggerBand(before) &&
			combatant.InStaggerBand(defender.VitalityPercent())
		if out.Injury != nil {
			ev.Narrative += "\n\n" + out.Injury.Description
			b.logger.Warn("move caused injury",
				zap.String("move", m.Name),
				zap.Stringer("type", out.Injury.Type),
			)
		}
	}
	if actor == ActorEnemy {
		ev.Narrative = fmt.Sprintf("Enemy %s used %s!\n%s", attacker.Name(), m.Name, ev.Narrative)
	}
	b.events = append(b.events, ev)
	return ev
}

// checkEnd applies the end-of-move rules: a downed player ends the battle
// before a downed enemy is considered.
func (b *Battle) checkEnd() {
	switch {
	case !b.player.IsConscious():
		b.over = true
		if b.player.IsDead() {
			b.outcome = veteran.Killed
			b.message = fmt.Sprintf("%s has fallen... permanently.", b.player.Name())
		} else {
			b.outcome = veteran.Faint
			b.message = fmt.Sprintf("%s fainted but still breathes...", b.player.Name())
		}
		b.logger.Warn("player combatant defeated", zap.Stringer("outcome", b.outcome))
	case !b.enemy.IsConscious():
		b.over = true
		b.outcome = veteran.Win
		b.message = fmt.Sprintf("Enemy %s has been defeated!", b.enemy.Name())
		b.logger.Info("player won the battle")
	default:
		b.message = promptMessage
	}
}

// LogEntry summarizes the battle from the player's side. BattleIndex and
// Timestamp are left for the combatant to stamp.
func (b *Battle) LogEntry() veteran.Entry {
	e := veteran.Entry{
		Outcome:           b.outcome,
		OpponentSpecies:   b.enemy.Species(),
		OpponentVeterancy: b.enemy.EffectiveVeteranScore() / 100,
		Environment:       append([]string(nil), b.environment...),
	}
	seenTactic := make(map[string]bool)
	for _, ev := range b.events {
		switch ev.Actor {
		case ActorPlayer:
			e.MovesUsed = append(e.MovesUsed, veteran.MoveUse{
				MoveName:     ev.MoveName,
				WasEffective: ev.Result.Effectiveness() >= combat.VeryEffectiveThreshold,
			})
			e.DamageDealt += ev.Result.Damage()
			if tactic := ev.Result.Move.Category.String(); !seenTactic[tactic] {
				seenTactic[tactic] = true
				e.PlayerTactics = append(e.PlayerTactics, tactic)
			}
		case ActorEnemy:
			e.DamageTaken += ev.Result.Damage()
			if ev.Damage == nil {
				continue
			}
			if in := ev.Damage.Injury; in != nil {
				e.StatusEvents = append(e.StatusEvents, statusTags(*in)...)
			}
			if ev.Staggered {
				e.StatusEvents = append(e.StatusEvents, veteran.TagStagger)
			}
		}
	}
	return e
}

// Finish records the battle in the player's history.
//
// Precondition: the battle is over.
// Postcondition: Returns ErrBattleInProgress or ErrAlreadyRecorded without
// side effects; otherwise the player's TotalBattles grows by one.
func (b *Battle) Finish() error {
	if !b.over {
		return ErrBattleInProgress
	}
	if b.recorded {
		return ErrAlreadyRecorded
	}
	b.player.AddBattleEntry(b.LogEntry())
	b.recorded = true
	return nil
}

func statusTags(in injury.Injury) []string {
	tags := []string{veteran.TagInjury}
	switch in.Type {
	case injury.LostLimb:
		tags = append(tags, veteran.TagLimbLost)
	case injury.LostEye:
		tags = append(tags, veteran.TagBlinded)
	}
	return tags
}

func findMove(moves []*move.Move, name string) *move.Move {
	for _, m := range moves {
		if strings.EqualFold(m.Name, name) {
			return m
		}
	}
	return nil
}
