package move

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/veteran/internal/game/dice"
)

// ErrDuplicateMove is returned when two moves share a case-insensitive name.
var ErrDuplicateMove = errors.New("duplicate move")

// Catalog is an immutable, case-insensitive registry of moves.
// It is safe for concurrent reads because nothing mutates it after construction.
type Catalog struct {
	moves map[string]*Move
	order []*Move
}

// NewCatalog validates moves and builds a Catalog.
//
// Postcondition: Returns a Catalog containing every move, or an error if any
// move is invalid or two moves share a name.
func NewCatalog(moves ...*Move) (*Catalog, error) {
	c := &Catalog{moves: make(map[string]*Move, len(moves))}
	for _, m := range moves {
		if m == nil {
			return nil, fmt.Errorf("%w: nil move", ErrInvalidMove)
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(m.Name)
		if _, ok := c.moves[key]; ok {
			return nil, fmt.Errorf("%w %q", ErrDuplicateMove, m.Name)
		}
		c.moves[key] = m
		c.order = append(c.order, m)
	}
	sort.Slice(c.order, func(i, j int) bool {
		return strings.ToLower(c.order[i].Name) < strings.ToLower(c.order[j].Name)
	})
	return c, nil
}

// Get returns the move registered under name, ignoring case.
func (c *Catalog) Get(name string) (*Move, bool) {
	m, ok := c.moves[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// Len returns the number of registered moves.
func (c *Catalog) Len() int { return len(c.order) }

// All returns every move sorted by name. The slice is a fresh copy.
func (c *Catalog) All() []*Move {
	out := make([]*Move, len(c.order))
	copy(out, c.order)
	return out
}

// Sample draws up to n distinct moves using src.
//
// Precondition: src must be non-nil.
// Postcondition: len(result) == min(n, Len()); no move appears twice.
func (c *Catalog) Sample(n int, src dice.Source) []*Move {
	pool := c.All()
	if n >= len(pool) {
		return pool
	}
	if n <= 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		j := i + src.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

type moveFile struct {
	Moves []moveYAML `yaml:"moves"`
}

type moveYAML struct {
	Name        string  `yaml:"name"`
	Element     string  `yaml:"element"`
	Category    string  `yaml:"category"`
	BasePower   int     `yaml:"base_power"`
	Accuracy    float64 `yaml:"accuracy"`
	Description string  `yaml:"description"`
}

func (y moveYAML) toMove() (*Move, error) {
	cat, err := ParseCategory(y.Category)
	if err != nil {
		return nil, fmt.Errorf("move %q: %w", y.Name, err)
	}
	return &Move{
		Name:        y.Name,
		Element:     Element(strings.ToLower(y.Element)),
		Category:    cat,
		BasePower:   y.BasePower,
		Accuracy:    y.Accuracy,
		Description: y.Description,
	}, nil
}

// LoadCatalog reads every *.yaml file in dir, each holding a top-level
// "moves" list, and builds a Catalog from the union.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Catalog, or an error if any file fails to
// parse or any move is invalid.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading move dir %q: %w", dir, err)
	}
	var moves []*Move
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var f moveFile
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		for _, y := range f.Moves {
			m, err := y.toMove()
			if err != nil {
				return nil, fmt.Errorf("parsing %q: %w", path, err)
			}
			moves = append(moves, m)
		}
	}
	cat, err := NewCatalog(moves...)
	if err != nil {
		return nil, fmt.Errorf("building catalog from %q: %w", dir, err)
	}
	return cat, nil
}

// DefaultCatalog returns the starter move set.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		&Move{Name: "Tackle", Element: Normal, Category: CategoryPhysical, BasePower: 40, Accuracy: 0.95,
			Description: "A straightforward physical attack"},
		&Move{Name: "Scratch", Element: Normal, Category: CategoryPhysical, BasePower: 35, Accuracy: 1.0,
			Description: "Rakes claws across the opponent"},
		&Move{Name: "Bite", Element: Dark, Category: CategoryPhysical, BasePower: 60, Accuracy: 0.90,
			Description: "Vicious bite that can cause flinching"},
		&Move{Name: "Ember", Element: Fire, Category: CategorySpecial, BasePower: 40, Accuracy: 0.95,
			Description: "Small flames that can burn"},
		&Move{Name: "Water Gun", Element: Water, Category: CategorySpecial, BasePower: 40, Accuracy: 0.95,
			Description: "Sprays water at the opponent"},
		&Move{Name: "Body Slam", Element: Normal, Category: CategoryPhysical, BasePower: 85, Accuracy: 0.85,
			Description: "Full-body tackle with tremendous force"},
		&Move{Name: "Flamethrower", Element: Fire, Category: CategorySpecial, BasePower: 90, Accuracy: 0.90,
			Description: "Intense flames that can severely burn"},
	)
	if err != nil {
		panic("move: DefaultCatalog precondition violated: " + err.Error())
	}
	return c
}
