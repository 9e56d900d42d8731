package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/veteran/internal/game/combat"
	"github.com/cory-johannsen/veteran/internal/game/combatant"
	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/injury"
	"github.com/cory-johannsen/veteran/internal/game/veteran"
)

// MaxPartySize is the number of slots a trainer's party has.
const MaxPartySize = 6

var (
	// ErrPartyMemberNotFound is returned when a lookup yields no results.
	ErrPartyMemberNotFound = errors.New("party member not found")
	// ErrSlotTaken is returned when another party member already holds the slot.
	ErrSlotTaken = errors.New("party slot already taken")
	// ErrInvalidSlot is returned for a slot outside [0, MaxPartySize).
	ErrInvalidSlot = errors.New("invalid party slot")
	// ErrInvalidID is returned when a combatant ID is not a UUID.
	ErrInvalidID = errors.New("invalid party member id")
)

// PartyMember is a stored combatant and its place in a trainer's party.
type PartyMember struct {
	TrainerID string
	Slot      int
	Combatant *combatant.Combatant
	UpdatedAt time.Time
}

// PartyRepository persists combatants, including their injuries and battle
// history, in the party_members table.
type PartyRepository struct {
	db     *pgxpool.Pool
	src    dice.Source
	logger *zap.Logger
}

// NewPartyRepository creates a PartyRepository backed by the given pool.
// Restored combatants draw injury rolls from src and log to logger.
//
// Precondition: db must be a valid, open connection pool; src must be non-nil.
func NewPartyRepository(db *pgxpool.Pool, src dice.Source, logger *zap.Logger) *PartyRepository {
	if src == nil {
		panic("postgres.NewPartyRepository: precondition violated: src must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartyRepository{db: db, src: src, logger: logger}
}

const partyColumns = `id::text, trainer_id, slot, species, nickname, age_years, base_stats,
		       vitality_percent, life_state, injuries, battle_log, total_battles,
		       has_veteran_immunity, updated_at`

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Save inserts or replaces c in trainerID's party at slot.
//
// Precondition: trainerID must be non-empty; c.ID() must be a UUID.
// Postcondition: Returns ErrInvalidSlot, ErrInvalidID or ErrSlotTaken without
// writing; otherwise the row for c.ID() holds c's current snapshot.
func (r *PartyRepository) Save(ctx context.Context, trainerID string, slot int, c *combatant.Combatant) error {
	return r.save(ctx, r.db, trainerID, slot, c)
}

// SaveAll stores every member in a single transaction. Either all rows are
// written or none are.
//
// Precondition: every member's Combatant must be non-nil.
func (r *PartyRepository) SaveAll(ctx context.Context, members []PartyMember) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, m := range members {
			if err := r.save(ctx, tx, m.TrainerID, m.Slot, m.Combatant); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info("party saved", zap.Int("members", len(members)))
	return nil
}

// ReplaceAll stores every member in a single transaction, first evicting any
// other combatant that holds the same trainer and slot.
//
// Precondition: every member's Combatant must be non-nil.
// Postcondition: Each (TrainerID, Slot) holds the given member; displaced rows
// are deleted. On error nothing is written.
func (r *PartyRepository) ReplaceAll(ctx context.Context, members []PartyMember) error {
	evicted := 0
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, m := range members {
			if m.Slot < 0 || m.Slot >= MaxPartySize {
				return fmt.Errorf("%w: %d", ErrInvalidSlot, m.Slot)
			}
			id, err := parseID(m.Combatant.ID())
			if err != nil {
				return err
			}
			tag, err := tx.Exec(ctx,
				`DELETE FROM party_members WHERE trainer_id = $1 AND slot = $2 AND id <> $3`,
				m.TrainerID, m.Slot, id,
			)
			if err != nil {
				return fmt.Errorf("clearing party slot: %w", err)
			}
			evicted += int(tag.RowsAffected())
			if err := r.save(ctx, tx, m.TrainerID, m.Slot, m.Combatant); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info("party replaced", zap.Int("members", len(members)), zap.Int("evicted", evicted))
	return nil
}

func (r *PartyRepository) save(ctx context.Context, q execer, trainerID string, slot int, c *combatant.Combatant) error {
	if slot < 0 || slot >= MaxPartySize {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	id, err := parseID(c.ID())
	if err != nil {
		return err
	}
	s := c.Snapshot()

	baseStats, err := json.Marshal(s.BaseStats)
	if err != nil {
		return fmt.Errorf("encoding base stats: %w", err)
	}
	injuries, err := json.Marshal(nonNil(s.Injuries))
	if err != nil {
		return fmt.Errorf("encoding injuries: %w", err)
	}
	battleLog, err := json.Marshal(nonNil(s.BattleLog))
	if err != nil {
		return fmt.Errorf("encoding battle log: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO party_members
			(id, trainer_id, slot, species, nickname, age_years, base_stats,
			 vitality_percent, life_state, injuries, battle_log, total_battles,
			 has_veteran_immunity)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			trainer_id = EXCLUDED.trainer_id,
			slot = EXCLUDED.slot,
			nickname = EXCLUDED.nickname,
			age_years = EXCLUDED.age_years,
			base_stats = EXCLUDED.base_stats,
			vitality_percent = EXCLUDED.vitality_percent,
			life_state = EXCLUDED.life_state,
			injuries = EXCLUDED.injuries,
			battle_log = EXCLUDED.battle_log,
			total_battles = EXCLUDED.total_battles,
			has_veteran_immunity = EXCLUDED.has_veteran_immunity,
			updated_at = NOW()`,
		id, trainerID, slot, s.Species, s.Nickname, s.AgeYears, baseStats,
		s.VitalityPercent, s.LifeState.String(), injuries, battleLog, s.TotalBattles,
		s.HasVeteranImmunity,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: trainer %q slot %d", ErrSlotTaken, trainerID, slot)
		}
		return fmt.Errorf("saving party member: %w", err)
	}
	r.logger.Debug("party member saved",
		zap.String("id", s.ID),
		zap.String("trainer", trainerID),
		zap.Int("slot", slot),
		zap.Int("total_battles", s.TotalBattles),
	)
	return nil
}

// Load retrieves and restores a combatant by ID.
//
// Postcondition: Returns the restored combatant, or ErrPartyMemberNotFound.
func (r *PartyRepository) Load(ctx context.Context, id string) (*combatant.Combatant, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `SELECT `+partyColumns+` FROM party_members WHERE id = $1`, uid)
	m, err := r.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPartyMemberNotFound
		}
		return nil, fmt.Errorf("loading party member %s: %w", id, err)
	}
	return m.Combatant, nil
}

// ListByTrainer returns trainerID's party ordered by slot.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *PartyRepository) ListByTrainer(ctx context.Context, trainerID string) ([]PartyMember, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+partyColumns+` FROM party_members WHERE trainer_id = $1 ORDER BY slot ASC`,
		trainerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing party: %w", err)
	}
	defer rows.Close()

	var out []PartyMember
	for rows.Next() {
		m, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning party member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating party: %w", err)
	}
	return out, nil
}

// Delete removes a combatant by ID.
//
// Postcondition: Returns ErrPartyMemberNotFound when no row was deleted.
func (r *PartyRepository) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM party_members WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("deleting party member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPartyMemberNotFound
	}
	return nil
}

func (r *PartyRepository) scan(row pgx.Row) (PartyMember, error) {
	var m PartyMember
	var s combatant.Snapshot
	var lifeState string
	var baseStats, injuries, battleLog []byte
	err := row.Scan(
		&s.ID, &m.TrainerID, &m.Slot, &s.Species, &s.Nickname, &s.AgeYears, &baseStats,
		&s.VitalityPercent, &lifeState, &injuries, &battleLog, &s.TotalBattles,
		&s.HasVeteranImmunity, &m.UpdatedAt,
	)
	if err != nil {
		return PartyMember{}, err
	}

	if s.LifeState, err = combatant.ParseLifeState(lifeState); err != nil {
		return PartyMember{}, err
	}
	var stats combat.Stats
	if err := json.Unmarshal(baseStats, &stats); err != nil {
		return PartyMember{}, fmt.Errorf("decoding base stats: %w", err)
	}
	s.BaseStats = stats
	var ins []injury.Injury
	if err := json.Unmarshal(injuries, &ins); err != nil {
		return PartyMember{}, fmt.Errorf("decoding injuries: %w", err)
	}
	s.Injuries = ins
	var entries []veteran.Entry
	if err := json.Unmarshal(battleLog, &entries); err != nil {
		return PartyMember{}, fmt.Errorf("decoding battle log: %w", err)
	}
	s.BattleLog = entries

	c, err := combatant.Restore(s, r.src, combatant.WithLogger(r.logger))
	if err != nil {
		return PartyMember{}, err
	}
	m.Combatant = c
	return m, nil
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w %q: %v", ErrInvalidID, id, err)
	}
	return uid, nil
}

func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
