package move

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fallback reasons reported by TypeChart.Lookup. Neither is fatal; the lookup
// still yields a neutral multiplier.
var (
	ErrUnknownElement      = errors.New("unknown element")
	ErrUnknownSpeciesClass = errors.New("unknown species class")
)

// NeutralMultiplier is the effectiveness used whenever no matchup applies.
const NeutralMultiplier = 1.0

const defaultKey = "default"

// SpeciesGroup assigns a species class to a list of species names. A species
// also belongs to the class when its name contains the class name.
type SpeciesGroup struct {
	Class   string   `yaml:"class"`
	Members []string `yaml:"members"`
}

// TypeChart maps (move element, defender species class) to a damage
// multiplier. It is immutable after construction.
type TypeChart struct {
	matchups     map[Element]map[string]float64
	groups       []SpeciesGroup
	defaultClass string
	known        map[string]bool
}

type typeChartYAML struct {
	Matchups     map[string]map[string]float64 `yaml:"matchups"`
	Species      []SpeciesGroup                `yaml:"species"`
	DefaultClass string                        `yaml:"default_class"`
}

// NewTypeChart builds a chart. Each element's "default" entry, when present,
// replaces the neutral multiplier for classes not listed.
//
// Postcondition: Returns a chart or an error if any multiplier is negative.
func NewTypeChart(matchups map[Element]map[string]float64, groups []SpeciesGroup, defaultClass string) (*TypeChart, error) {
	if defaultClass == "" {
		defaultClass = string(Normal)
	}
	tc := &TypeChart{
		matchups:     make(map[Element]map[string]float64, len(matchups)),
		defaultClass: strings.ToLower(defaultClass),
		known:        map[string]bool{strings.ToLower(defaultClass): true},
	}
	for el, row := range matchups {
		copied := make(map[string]float64, len(row))
		for class, mult := range row {
			if mult < 0 {
				return nil, fmt.Errorf("matchup %s vs %s: multiplier must be >= 0, got %v", el, class, mult)
			}
			class = strings.ToLower(class)
			copied[class] = mult
			if class != defaultKey {
				tc.known[class] = true
			}
		}
		tc.matchups[Element(strings.ToLower(string(el)))] = copied
	}
	for _, g := range groups {
		if g.Class == "" {
			return nil, errors.New("species group class must not be empty")
		}
		members := make([]string, len(g.Members))
		for i, m := range g.Members {
			members[i] = strings.ToLower(m)
		}
		class := strings.ToLower(g.Class)
		tc.groups = append(tc.groups, SpeciesGroup{Class: class, Members: members})
		tc.known[class] = true
	}
	return tc, nil
}

// LoadTypeChart parses a YAML chart file.
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns a non-nil chart or a non-nil error.
func LoadTypeChart(path string) (*TypeChart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading type chart %q: %w", path, err)
	}
	var raw typeChartYAML
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing type chart %q: %w", path, err)
	}
	matchups := make(map[Element]map[string]float64, len(raw.Matchups))
	for el, row := range raw.Matchups {
		matchups[Element(el)] = row
	}
	tc, err := NewTypeChart(matchups, raw.Species, raw.DefaultClass)
	if err != nil {
		return nil, fmt.Errorf("building type chart %q: %w", path, err)
	}
	return tc, nil
}

// DefaultTypeChart returns the starter chart: the fire/water/grass triangle
// plus dark against psychic.
func DefaultTypeChart() *TypeChart {
	tc, err := NewTypeChart(
		map[Element]map[string]float64{
			Normal: {defaultKey: 1.0},
			Fire:   {"grass": 2.0, "water": 0.5, "fire": 0.5, defaultKey: 1.0},
			Water:  {"fire": 2.0, "grass": 0.5, "water": 0.5, defaultKey: 1.0},
			Grass:  {"water": 2.0, "fire": 0.5, "grass": 0.5, defaultKey: 1.0},
			Dark:   {"psychic": 2.0, "dark": 0.5, defaultKey: 1.0},
		},
		[]SpeciesGroup{
			{Class: "fire", Members: []string{"charmander", "vulpix"}},
			{Class: "water", Members: []string{"squirtle", "psyduck"}},
			{Class: "grass", Members: []string{"bulbasaur", "oddish"}},
		},
		string(Normal),
	)
	if err != nil {
		panic("move: DefaultTypeChart precondition violated: " + err.Error())
	}
	return tc
}

// SpeciesClass maps a species name to its class. Groups are checked in
// declaration order; species matching no group get the default class.
func (tc *TypeChart) SpeciesClass(species string) string {
	s := strings.ToLower(species)
	for _, g := range tc.groups {
		if strings.Contains(s, g.Class) {
			return g.Class
		}
		for _, m := range g.Members {
			if s == m {
				return g.Class
			}
		}
	}
	return tc.defaultClass
}

// Lookup returns the multiplier for element against class. The returned error
// explains a neutral fallback and never signals failure: the multiplier is
// always usable.
//
// Postcondition: Returns a multiplier >= 0; err is nil, ErrUnknownElement or
// ErrUnknownSpeciesClass.
func (tc *TypeChart) Lookup(element Element, class string) (float64, error) {
	row, ok := tc.matchups[Element(strings.ToLower(string(element)))]
	if !ok {
		return NeutralMultiplier, fmt.Errorf("%w %q", ErrUnknownElement, element)
	}
	class = strings.ToLower(class)
	if mult, ok := row[class]; ok {
		return mult, nil
	}
	fallback := NeutralMultiplier
	if d, ok := row[defaultKey]; ok {
		fallback = d
	}
	if !tc.known[class] {
		return fallback, fmt.Errorf("%w %q", ErrUnknownSpeciesClass, class)
	}
	return fallback, nil
}

// Effectiveness is Lookup without the fallback reason.
func (tc *TypeChart) Effectiveness(element Element, class string) float64 {
	mult, _ := tc.Lookup(element, class)
	return mult
}
