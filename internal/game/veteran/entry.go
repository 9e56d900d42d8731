// Package veteran implements the battle log and the decay-weighted scoring
// that replaces levels and experience points.
package veteran

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Outcome is how a battle ended for the logged combatant.
type Outcome int

const (
	Win Outcome = iota
	Retreat
	Faint
	Killed
)

// String returns the lowercase outcome label.
func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Retreat:
		return "retreat"
	case Faint:
		return "faint"
	case Killed:
		return "killed"
	default:
		return "unknown"
	}
}

// ParseOutcome converts a label into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(s) {
	case "win":
		return Win, nil
	case "retreat":
		return Retreat, nil
	case "faint":
		return Faint, nil
	case "killed":
		return Killed, nil
	default:
		return 0, fmt.Errorf("unknown battle outcome %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	if o < Win || o > Killed {
		return nil, fmt.Errorf("unknown battle outcome %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(b []byte) error {
	v, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Status event tags that feed the trauma score.
const (
	TagLimbLost = "limb_lost"
	TagBlinded  = "blinded"
	TagStagger  = "stagger"
	TagInjury   = "injury"
)

// MoveUse records one move the combatant used and whether it landed well.
type MoveUse struct {
	MoveName     string `json:"move"`
	WasEffective bool   `json:"effective"`
}

// Entry is one battle in a combatant's history. Entries are immutable once
// appended to a Log. StatusEvents is a set: Log.Append sorts and deduplicates it.
type Entry struct {
	Outcome           Outcome   `json:"outcome"`
	OpponentSpecies   string    `json:"opponent_id,omitempty"`
	OpponentVeterancy float64   `json:"opponent_veterancy"`
	MovesUsed         []MoveUse `json:"moves_used"`
	DamageTaken       float64   `json:"damage_taken"`
	DamageDealt       float64   `json:"damage_dealt"`
	StatusEvents      []string  `json:"status_events"`
	PlayerTactics     []string  `json:"player_tactics"`
	Environment       []string  `json:"environment,omitempty"`
	BattleIndex       int       `json:"battle_index"`
	Timestamp         time.Time `json:"timestamp"`
}

// clone deep-copies e so the log never shares slices with callers.
func (e Entry) clone() Entry {
	e.MovesUsed = slices.Clone(e.MovesUsed)
	e.StatusEvents = slices.Clone(e.StatusEvents)
	e.PlayerTactics = slices.Clone(e.PlayerTactics)
	e.Environment = slices.Clone(e.Environment)
	return e
}

// normalize returns a clone with StatusEvents turned into a sorted set and
// every non-finite number replaced by zero.
func (e Entry) normalize() Entry {
	e = e.clone()
	e.OpponentVeterancy = finite(e.OpponentVeterancy)
	e.DamageTaken = finite(e.DamageTaken)
	e.DamageDealt = finite(e.DamageDealt)
	if len(e.StatusEvents) > 0 {
		slices.Sort(e.StatusEvents)
		e.StatusEvents = slices.Compact(e.StatusEvents)
	}
	return e
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// EffectiveMoves counts the moves that landed well.
func (e Entry) EffectiveMoves() int {
	n := 0
	for _, m := range e.MovesUsed {
		if m.WasEffective {
			n++
		}
	}
	return n
}

// UniqueTactics counts distinct tactic tags.
func (e Entry) UniqueTactics() int {
	seen := make(map[string]struct{}, len(e.PlayerTactics))
	for _, t := range e.PlayerTactics {
		seen[t] = struct{}{}
	}
	return len(seen)
}

// HasStatus reports whether tag is among the entry's status events.
func (e Entry) HasStatus(tag string) bool {
	return slices.Contains(e.StatusEvents, tag)
}
