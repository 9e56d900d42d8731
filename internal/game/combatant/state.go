package combatant

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/veteran/internal/game/injury"
)

// LifeState is a combatant's position in the lifecycle.
//
// Transitions: Active -> Unconscious -> Active (via heal), and
// Active/Unconscious -> Dead, which is terminal.
type LifeState int

const (
	Active LifeState = iota
	Unconscious
	Dead
)

// String returns the lowercase state label.
func (s LifeState) String() string {
	switch s {
	case Active:
		return "active"
	case Unconscious:
		return "unconscious"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// ParseLifeState converts a label into a LifeState.
func ParseLifeState(s string) (LifeState, error) {
	switch strings.ToLower(s) {
	case "active":
		return Active, nil
	case "unconscious":
		return Unconscious, nil
	case "dead":
		return Dead, nil
	default:
		return 0, fmt.Errorf("unknown life state %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s LifeState) MarshalText() ([]byte, error) {
	if s < Active || s > Dead {
		return nil, fmt.Errorf("unknown life state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *LifeState) UnmarshalText(b []byte) error {
	v, err := ParseLifeState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Narrative state strings shown to the player.
const (
	StateDead        = "Lifeless... they won't get back up"
	StateUnconscious = "Unconscious, barely breathing"
)

// vitalityBands maps a lower vitality bound to the line shown at or above it.
var vitalityBands = []struct {
	min  float64
	text string
}{
	{90, "Standing strong, ready for battle"},
	{70, "Standing strong but breathing hard"},
	{50, "Favoring one side, visibly hurt"},
	{30, "Staggered — switch window opens"},
	{10, "On the brink of collapse"},
}

const criticalBand = "About to fall — retreat NOW"

// The staggered band covers vitality in [StaggerFloor, StaggerThreshold).
const (
	StaggerThreshold = 50.0
	StaggerFloor     = 30.0
)

// InStaggerBand reports whether an active combatant at vitality reads as
// staggered.
func InStaggerBand(vitality float64) bool {
	return vitality >= StaggerFloor && vitality < StaggerThreshold
}

// Describe maps a combatant's state to the narrative line shown in place of
// hit points. Dead and Unconscious override vitality and injuries.
func Describe(state LifeState, vitality float64, injuries []injury.Injury) string {
	switch state {
	case Dead:
		return StateDead
	case Unconscious:
		return StateUnconscious
	}

	line := criticalBand
	for _, b := range vitalityBands {
		if vitality >= b.min {
			line = b.text
			break
		}
	}
	if notes := InjuryNotes(injuries); notes != "" {
		return line + " — " + notes
	}
	return line
}

// InjuryNotes joins the short note of every injury, in creation order.
func InjuryNotes(injuries []injury.Injury) string {
	notes := make([]string, 0, len(injuries))
	for _, in := range injuries {
		if n := in.Note(); n != "" {
			notes = append(notes, n)
		}
	}
	return strings.Join(notes, ", ")
}
