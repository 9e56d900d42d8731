package move_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/move"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want move.Category
	}{
		{"physical", move.CategoryPhysical},
		{"Special", move.CategorySpecial},
		{" status ", move.CategoryStatus},
	}
	for _, tc := range tests {
		got, err := move.ParseCategory(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
	_, err := move.ParseCategory("psychic")
	assert.Error(t, err)
}

func TestMove_Validate(t *testing.T) {
	ok := &move.Move{Name: "Tackle", Element: move.Normal, BasePower: 40, Accuracy: 0.95}
	assert.NoError(t, ok.Validate())

	bad := []*move.Move{
		{Name: "", Accuracy: 1},
		{Name: "X", Accuracy: 0},
		{Name: "X", Accuracy: 1.01},
		{Name: "X", Accuracy: 1, BasePower: -1},
		{Name: "X", Accuracy: 1, Category: move.Category(9)},
	}
	for _, m := range bad {
		err := m.Validate()
		require.Error(t, err, "%+v", m)
		assert.True(t, errors.Is(err, move.ErrInvalidMove))
	}
}

func TestMove_Narratives(t *testing.T) {
	m := &move.Move{Name: "Ember", Element: move.Fire}
	assert.Equal(t, []string{"A solid Ember!", "Ember connects!", "The Ember strikes true!"}, m.HitNarratives())
	assert.Equal(t, []string{"The Ember misses!", "Ember goes wide!", "They dodge the Ember!"}, m.MissNarratives())
	assert.Equal(t, "Ember (fire)", m.String())
}

func TestDefaultCatalog_CaseInsensitiveLookup(t *testing.T) {
	c := move.DefaultCatalog()
	assert.Equal(t, 7, c.Len())
	m, ok := c.Get("TACKLE")
	require.True(t, ok)
	assert.Equal(t, 40, m.BasePower)
	assert.Equal(t, 0.95, m.Accuracy)
	_, ok = c.Get("hyper beam")
	assert.False(t, ok)
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	_, err := move.NewCatalog(
		&move.Move{Name: "Tackle", Accuracy: 1},
		&move.Move{Name: "tackle", Accuracy: 1},
	)
	assert.ErrorIs(t, err, move.ErrDuplicateMove)
}

func TestNewCatalog_RejectsInvalid(t *testing.T) {
	_, err := move.NewCatalog(&move.Move{Name: "Broken", Accuracy: 2})
	assert.ErrorIs(t, err, move.ErrInvalidMove)
	_, err = move.NewCatalog(nil)
	assert.ErrorIs(t, err, move.ErrInvalidMove)
}

func TestCatalog_All_SortedCopy(t *testing.T) {
	c := move.DefaultCatalog()
	all := c.All()
	require.Len(t, all, 7)
	assert.Equal(t, "Bite", all[0].Name)
	assert.Equal(t, "Water Gun", all[6].Name)
	all[0] = nil
	assert.NotNil(t, c.All()[0], "mutating the returned slice must not affect the catalog")
}

func TestCatalog_Sample_Property_DistinctAndBounded(t *testing.T) {
	c := move.DefaultCatalog()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		seed := rapid.Uint64().Draw(rt, "seed")
		got := c.Sample(n, dice.NewSeededSource(seed))
		want := n
		if want > c.Len() {
			want = c.Len()
		}
		assert.Len(rt, got, want)
		seen := map[string]bool{}
		for _, m := range got {
			assert.False(rt, seen[m.Name], "duplicate %s", m.Name)
			seen[m.Name] = true
		}
	})
}

func TestLoadCatalog_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`
moves:
  - name: Vine Whip
    element: grass
    category: physical
    base_power: 45
    accuracy: 1.0
    description: Lashes with vines
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	c, err := move.LoadCatalog(dir)
	require.NoError(t, err)
	m, ok := c.Get("vine whip")
	require.True(t, ok)
	assert.Equal(t, move.Grass, m.Element)
	assert.Equal(t, move.CategoryPhysical, m.Category)
	assert.Equal(t, 45, m.BasePower)
}

func TestLoadCatalog_UnknownField_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`
moves:
  - name: Vine Whip
    power: 45
`), 0644))
	_, err := move.LoadCatalog(dir)
	assert.Error(t, err)
}

func TestLoadCatalog_BadCategory_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`
moves:
  - name: Odd
    element: normal
    category: weird
    accuracy: 1.0
`), 0644))
	_, err := move.LoadCatalog(dir)
	assert.Error(t, err)
}

func TestLoadCatalog_NonexistentDir_ReturnsError(t *testing.T) {
	_, err := move.LoadCatalog("/nonexistent/moves")
	assert.Error(t, err)
}

func TestLoadCatalog_RealContent(t *testing.T) {
	c, err := move.LoadCatalog("../../../content/moves")
	require.NoError(t, err)
	for _, name := range []string{"Tackle", "Scratch", "Bite", "Ember", "Water Gun", "Body Slam", "Flamethrower", "Growl"} {
		_, ok := c.Get(name)
		assert.True(t, ok, "move %q must be present", name)
	}
}
