package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/veteran/internal/game/combat"
	"github.com/cory-johannsen/veteran/internal/game/combatant"
	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/move"
	"github.com/cory-johannsen/veteran/internal/game/veteran"
	"github.com/cory-johannsen/veteran/internal/storage/postgres"
	"github.com/cory-johannsen/veteran/internal/testutil"
)

func setupPartyRepo(t *testing.T) *postgres.PartyRepository {
	t.Helper()
	pool := testutil.NewPool(t)
	return postgres.NewPartyRepository(pool, dice.NewSequenceSource(), zap.NewNop())
}

func veteranCombatant(t *testing.T) *combatant.Combatant {
	t.Helper()
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	c := combatant.New("Charmander", dice.NewSequenceSource(),
		combatant.WithNickname("Blaze"),
		combatant.WithAge(4),
		combatant.WithBaseStats(combat.Stats{Attack: 55, Defense: 43, Speed: 65}),
		combatant.WithClock(func() time.Time { return at }),
	)
	for i := range 12 {
		c.AddBattleEntry(veteran.Entry{
			Outcome:         veteran.Win,
			OpponentSpecies: "Rattata",
			MovesUsed:       []veteran.MoveUse{{MoveName: "Ember", WasEffective: i%3 == 0}},
			DamageTaken:     12.5,
			StatusEvents:    []string{veteran.TagStagger},
			PlayerTactics:   []string{"special"},
			Environment:     []string{"cave"},
		})
	}
	c.TakeDamage(96, move.Fire, "tail")
	c.GrantVeteranImmunity()
	return c
}

func TestPartyRepository_SaveAndLoad(t *testing.T) {
	repo := setupPartyRepo(t)
	ctx := context.Background()
	c := veteranCombatant(t)

	require.NoError(t, repo.Save(ctx, "ash", 0, c))
	got, err := repo.Load(ctx, c.ID())
	require.NoError(t, err)

	assert.Equal(t, c.ID(), got.ID())
	assert.Equal(t, "Blaze", got.Name())
	assert.Equal(t, 4, got.AgeYears())
	assert.Equal(t, c.BaseStats(), got.BaseStats())
	assert.InDelta(t, c.VitalityPercent(), got.VitalityPercent(), 1e-9)
	assert.Equal(t, c.LifeState(), got.LifeState())
	assert.Equal(t, c.Injuries(), got.Injuries())
	assert.Equal(t, c.TotalBattles(), got.TotalBattles())
	assert.True(t, got.HasVeteranImmunity())
	assert.Equal(t, c.Scores(), got.Scores())
	assert.Equal(t, c.DescriptiveState(), got.DescriptiveState())

	log := got.BattleLog()
	require.Len(t, log, 12)
	assert.Equal(t, 11, log[11].BattleIndex)
	assert.Equal(t, []string{"cave"}, log[0].Environment)
}

func TestPartyRepository_SaveUpserts(t *testing.T) {
	repo := setupPartyRepo(t)
	ctx := context.Background()
	c := combatant.New("Squirtle", dice.NewSequenceSource())
	require.NoError(t, repo.Save(ctx, "misty", 1, c))

	c.AddBattleEntry(veteran.Entry{Outcome: veteran.Retreat})
	c.TakeDamage(30, move.Water, "")
	require.NoError(t, repo.Save(ctx, "misty", 2, c))

	party, err := repo.ListByTrainer(ctx, "misty")
	require.NoError(t, err)
	require.Len(t, party, 1)
	assert.Equal(t, 2, party[0].Slot)
	assert.Equal(t, 1, party[0].Combatant.TotalBattles())
	assert.InDelta(t, 70.0, party[0].Combatant.VitalityPercent(), 1e-9)
	assert.False(t, party[0].UpdatedAt.IsZero())
}

func TestPartyRepository_ListByTrainerOrderedBySlot(t *testing.T) {
	repo := setupPartyRepo(t)
	ctx := context.Background()
	src := dice.NewSequenceSource()
	for slot, species := range map[int]string{3: "Oddish", 0: "Pidgey", 5: "Vulpix"} {
		require.NoError(t, repo.Save(ctx, "brock", slot, combatant.New(species, src)))
	}
	require.NoError(t, repo.Save(ctx, "gary", 0, combatant.New("Eevee", src)))

	party, err := repo.ListByTrainer(ctx, "brock")
	require.NoError(t, err)
	require.Len(t, party, 3)
	assert.Equal(t, []string{"Pidgey", "Oddish", "Vulpix"}, []string{
		party[0].Combatant.Species(), party[1].Combatant.Species(), party[2].Combatant.Species(),
	})

	empty, err := repo.ListByTrainer(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPartyRepository_SlotTaken(t *testing.T) {
	repo := setupPartyRepo(t)
	ctx := context.Background()
	src := dice.NewSequenceSource()
	require.NoError(t, repo.Save(ctx, "ash", 0, combatant.New("Pikachu", src)))
	err := repo.Save(ctx, "ash", 0, combatant.New("Bulbasaur", src))
	assert.ErrorIs(t, err, postgres.ErrSlotTaken)
}

func TestPartyRepository_SaveAll(t *testing.T) {
	repo := setupPartyRepo(t)
	ctx := context.Background()
	src := dice.NewSequenceSource()
	a := combatant.New("Squirtle", src)
	b := combatant.New("Oddish", src)

	require.NoError(t, repo.SaveAll(ctx, []postgres.PartyMember{
		{TrainerID: "brock", Slot: 0, Combatant: a},
		{TrainerID: "brock", Slot: 1, Combatant: b},
	}))
	party, err := repo.ListByTrainer(ctx, "brock")
	require.NoError(t, err)
	require.Len(t, party, 2)
	assert.Equal(t, a.ID(), party[0].Combatant.ID())
	assert.Equal(t, b.ID(), party[1].Combatant.ID())
}

func TestPartyRepository_SaveAllRollsBack(t *testing.T) {
	repo := setupPartyRepo(t)
	ctx := context.Background()
	src := dice.NewSequenceSource()
	first := combatant.New("Vulpix", src)

	err := repo.SaveAll(ctx, []postgres.PartyMember{
		{TrainerID: "gary", Slot: 2, Combatant: first},
		{TrainerID: "gary", Slot: 2, Combatant: combatant.New("Eevee", src)},
	})
	assert.ErrorIs(t, err, postgres.ErrSlotTaken)

	_, err = repo.Load(ctx, first.ID())
	assert.ErrorIs(t, err, postgres.ErrPartyMemberNotFound)
}

func TestPartyRepository_ReplaceAllTakesOverSlots(t *testing.T) {
	repo := setupPartyRepo(t)
	ctx := context.Background()
	src := dice.NewSequenceSource()
	firstPlayer := combatant.New("Charmander", src)
	firstRival := combatant.New("Rattata", src)
	require.NoError(t, repo.ReplaceAll(ctx, []postgres.PartyMember{
		{TrainerID: "red", Slot: 0, Combatant: firstPlayer},
		{TrainerID: "red-rival", Slot: 0, Combatant: firstRival},
	}))

	// A later run brings a fresh rival and a fresh player to the same slots.
	secondPlayer := combatant.New("Charmander", src)
	secondRival := combatant.New("Rattata", src)
	require.NoError(t, repo.ReplaceAll(ctx, []postgres.PartyMember{
		{TrainerID: "red", Slot: 0, Combatant: secondPlayer},
		{TrainerID: "red-rival", Slot: 0, Combatant: secondRival},
	}))

	for trainer, want := range map[string]string{"red": secondPlayer.ID(), "red-rival": secondRival.ID()} {
		party, err := repo.ListByTrainer(ctx, trainer)
		require.NoError(t, err)
		require.Len(t, party, 1)
		assert.Equal(t, want, party[0].Combatant.ID())
	}
	_, err := repo.Load(ctx, firstRival.ID())
	assert.ErrorIs(t, err, postgres.ErrPartyMemberNotFound)

	// Saving the same combatant again keeps its row.
	secondPlayer.AddBattleEntry(veteran.Entry{Outcome: veteran.Win})
	require.NoError(t, repo.ReplaceAll(ctx, []postgres.PartyMember{
		{TrainerID: "red", Slot: 0, Combatant: secondPlayer},
	}))
	got, err := repo.Load(ctx, secondPlayer.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalBattles())
}

func TestPartyRepository_ReplaceAllRejectsBadSlot(t *testing.T) {
	repo := setupPartyRepo(t)
	ctx := context.Background()
	src := dice.NewSequenceSource()
	kept := combatant.New("Eevee", src)

	err := repo.ReplaceAll(ctx, []postgres.PartyMember{
		{TrainerID: "gary", Slot: 0, Combatant: kept},
		{TrainerID: "gary", Slot: postgres.MaxPartySize, Combatant: combatant.New("Vulpix", src)},
	})
	assert.ErrorIs(t, err, postgres.ErrInvalidSlot)
	_, err = repo.Load(ctx, kept.ID())
	assert.ErrorIs(t, err, postgres.ErrPartyMemberNotFound)
}

func TestPool_Health(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	assert.NoError(t, pc.Pool.Health(context.Background(), time.Second))
}

func TestPartyRepository_DeadStaysDead(t *testing.T) {
	repo := setupPartyRepo(t)
	ctx := context.Background()
	c := combatant.New("Rattata", dice.NewSequenceSource())
	c.TakeDamage(50, move.Normal, "")
	c.TakeDamage(45, move.Normal, "")
	c.TakeDamage(60, move.Normal, "")
	require.True(t, c.IsDead())

	require.NoError(t, repo.Save(ctx, "ash", 4, c))
	got, err := repo.Load(ctx, c.ID())
	require.NoError(t, err)
	assert.True(t, got.IsDead())
	assert.False(t, got.Heal(100))
}

func TestPartyRepository_DeleteAndNotFound(t *testing.T) {
	repo := setupPartyRepo(t)
	ctx := context.Background()
	c := combatant.New("Psyduck", dice.NewSequenceSource())
	require.NoError(t, repo.Save(ctx, "misty", 0, c))

	require.NoError(t, repo.Delete(ctx, c.ID()))
	_, err := repo.Load(ctx, c.ID())
	assert.ErrorIs(t, err, postgres.ErrPartyMemberNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, c.ID()), postgres.ErrPartyMemberNotFound)
	_, err = repo.Load(ctx, uuid.NewString())
	assert.ErrorIs(t, err, postgres.ErrPartyMemberNotFound)
}

func TestPartyRepository_RejectsBadInput(t *testing.T) {
	// No database needed: validation happens before any query.
	repo := postgres.NewPartyRepository(nil, dice.NewSequenceSource(), nil)
	ctx := context.Background()

	err := repo.Save(ctx, "ash", postgres.MaxPartySize, combatant.New("Pidgey", dice.NewSequenceSource()))
	assert.ErrorIs(t, err, postgres.ErrInvalidSlot)

	err = repo.Save(ctx, "ash", 0, combatant.New("Pidgey", dice.NewSequenceSource(), combatant.WithID("not-a-uuid")))
	assert.ErrorIs(t, err, postgres.ErrInvalidID)

	_, err = repo.Load(ctx, "nope")
	assert.ErrorIs(t, err, postgres.ErrInvalidID)
	assert.ErrorIs(t, repo.Delete(ctx, "nope"), postgres.ErrInvalidID)
}

func TestProperty_InvalidSlotsNeverReachTheDatabase(t *testing.T) {
	repo := postgres.NewPartyRepository(nil, dice.NewSequenceSource(), nil)
	rapid.Check(t, func(rt *rapid.T) {
		slot := rapid.OneOf(rapid.IntRange(-100, -1), rapid.IntRange(postgres.MaxPartySize, 100)).Draw(rt, "slot")
		err := repo.Save(context.Background(), "ash", slot, combatant.New("Pidgey", dice.NewSequenceSource()))
		if err == nil {
			rt.Fatalf("slot %d accepted", slot)
		}
	})
}
