// Package move holds the immutable move catalog and type-effectiveness chart
// consumed by the damage resolver.
package move

import (
	"errors"
	"fmt"
	"strings"
)

// Element is the elemental type of a move, e.g. "fire" or "normal".
type Element string

// Elements used by the default catalog and chart.
const (
	Normal   Element = "normal"
	Fire     Element = "fire"
	Water    Element = "water"
	Grass    Element = "grass"
	Dark     Element = "dark"
	Psychic  Element = "psychic"
	Physical Element = "physical"
)

// Category selects how a move deals damage.
type Category int

const (
	CategoryPhysical Category = iota
	CategorySpecial
	CategoryStatus
)

// String returns the lowercase category label.
func (c Category) String() string {
	switch c {
	case CategoryPhysical:
		return "physical"
	case CategorySpecial:
		return "special"
	case CategoryStatus:
		return "status"
	default:
		return "unknown"
	}
}

// ParseCategory converts a label into a Category.
//
// Postcondition: Returns a valid Category or a non-nil error.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "physical":
		return CategoryPhysical, nil
	case "special":
		return CategorySpecial, nil
	case "status":
		return CategoryStatus, nil
	default:
		return 0, fmt.Errorf("unknown move category %q", s)
	}
}

// ErrInvalidMove is wrapped by Validate for every rejected move definition.
var ErrInvalidMove = errors.New("invalid move")

// Move is a single attack definition. Moves are shared by pointer from a
// Catalog and must not be modified after the catalog is built.
type Move struct {
	Name        string
	Element     Element
	Category    Category
	BasePower   int
	Accuracy    float64
	Description string
}

// Validate checks the move's invariants.
//
// Postcondition: Returns nil iff Name is non-empty, BasePower >= 0,
// Accuracy is in (0, 1] and Category is known.
func (m *Move) Validate() error {
	var errs []string
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	if m.BasePower < 0 {
		errs = append(errs, fmt.Sprintf("base_power must be >= 0, got %d", m.BasePower))
	}
	if m.Accuracy <= 0 || m.Accuracy > 1 {
		errs = append(errs, fmt.Sprintf("accuracy must be in (0, 1], got %v", m.Accuracy))
	}
	if m.Category < CategoryPhysical || m.Category > CategoryStatus {
		errs = append(errs, fmt.Sprintf("unknown category %d", int(m.Category)))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %s", ErrInvalidMove, m.Name, strings.Join(errs, "; "))
	}
	return nil
}

// HitNarratives returns the flavor lines used when the move connects.
func (m *Move) HitNarratives() []string {
	return []string{
		fmt.Sprintf("A solid %s!", m.Name),
		fmt.Sprintf("%s connects!", m.Name),
		fmt.Sprintf("The %s strikes true!", m.Name),
	}
}

// MissNarratives returns the flavor lines used when the move misses.
func (m *Move) MissNarratives() []string {
	return []string{
		fmt.Sprintf("The %s misses!", m.Name),
		fmt.Sprintf("%s goes wide!", m.Name),
		fmt.Sprintf("They dodge the %s!", m.Name),
	}
}

// String returns "Name (element)".
func (m *Move) String() string {
	return fmt.Sprintf("%s (%s)", m.Name, m.Element)
}
