// Package injury models permanent battle injuries: what they are, when a hit
// causes one, and how they shift a combatant's stats. Injuries never heal.
package injury

import (
	"fmt"
	"strings"
)

// Type identifies the kind of permanent injury.
type Type int

const (
	DeepScar Type = iota
	BurnScar
	LostEye
	BrokenLimb
	LostLimb
	EmotionalTrauma
)

var typeNames = map[Type]string{
	DeepScar:        "deep_scar",
	BurnScar:        "burn_scar",
	LostEye:         "lost_eye",
	BrokenLimb:      "broken_limb",
	LostLimb:        "lost_limb",
	EmotionalTrauma: "emotional_trauma",
}

// String returns the snake_case identifier used in persisted state.
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseType converts a snake_case identifier into a Type.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == strings.ToLower(s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown injury type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if _, ok := typeNames[t]; !ok {
		return nil, fmt.Errorf("unknown injury type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Severity grades an injury.
type Severity int

const (
	Minor Severity = iota
	Major
	Catastrophic
)

// String returns the lowercase severity label.
func (s Severity) String() string {
	switch s {
	case Minor:
		return "minor"
	case Major:
		return "major"
	case Catastrophic:
		return "catastrophic"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a label into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "minor":
		return Minor, nil
	case "major":
		return Major, nil
	case "catastrophic":
		return Catastrophic, nil
	default:
		return 0, fmt.Errorf("unknown injury severity %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if s < Minor || s > Catastrophic {
		return nil, fmt.Errorf("unknown injury severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Weight is the flat injury-severity score contributed by one injury.
//
// Postcondition: Returns 50, 20 or 5; 0 for an unknown severity.
func (s Severity) Weight() float64 {
	switch s {
	case Catastrophic:
		return 50
	case Major:
		return 20
	case Minor:
		return 5
	default:
		return 0
	}
}

// Injury is a permanent wound. Values are immutable once created.
type Injury struct {
	Type        Type     `json:"type"`
	Severity    Severity `json:"severity"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
}

// New builds an Injury with the standard narrative description.
func New(t Type, sev Severity, location string) Injury {
	return Injury{Type: t, Severity: sev, Location: location, Description: Describe(t, location)}
}

// Describe returns the narrative sentence recorded when an injury is created.
func Describe(t Type, location string) string {
	switch t {
	case DeepScar:
		return fmt.Sprintf("Deep scar across %s — a permanent reminder of near-death", location)
	case BurnScar:
		return fmt.Sprintf("Scorched tissue on %s — the fire's mark remains", location)
	case LostEye:
		return "Eye destroyed — vision gone but instincts sharpen"
	case BrokenLimb:
		return fmt.Sprintf("Fractured %s — movement forever altered", location)
	case LostLimb:
		return fmt.Sprintf("%s severed — they will never be the same", location)
	case EmotionalTrauma:
		return "Something broke inside — the haunted look won't fade"
	default:
		return fmt.Sprintf("Injury to %s", location)
	}
}

// Note returns the short phrase appended to a combatant's descriptive state.
func (i Injury) Note() string {
	switch i.Type {
	case DeepScar:
		return "bears deep scars"
	case BurnScar:
		return "skin scorched and scarred"
	case LostEye:
		return "one eye clouded and useless"
	case BrokenLimb:
		return "limb crooked from old break"
	case LostLimb:
		return "missing a limb"
	case EmotionalTrauma:
		return "eyes haunted by past horrors"
	default:
		return ""
	}
}

// TotalSeverity sums the flat severity weight of every injury.
//
// Postcondition: Returns >= 0.
func TotalSeverity(injuries []Injury) float64 {
	total := 0.0
	for _, in := range injuries {
		total += in.Severity.Weight()
	}
	return total
}
