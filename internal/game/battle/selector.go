package battle

import (
	"github.com/cory-johannsen/veteran/internal/game/combatant"
	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/move"
)

// MoveSelector chooses the move a non-player combatant uses on its turn.
type MoveSelector interface {
	// Select returns one of moves for self to use against foe.
	//
	// Precondition: moves is non-empty.
	// Postcondition: Returns an element of moves.
	Select(self, foe *combatant.Combatant, moves []*move.Move) *move.Move
}

// RandomSelector picks uniformly among the available moves.
type RandomSelector struct {
	src dice.Source
}

// NewRandomSelector creates a RandomSelector drawing from src.
//
// Precondition: src must be non-nil.
func NewRandomSelector(src dice.Source) *RandomSelector {
	if src == nil {
		panic("battle.NewRandomSelector: precondition violated: src must be non-nil")
	}
	return &RandomSelector{src: src}
}

// Select consumes one Intn draw.
func (r *RandomSelector) Select(_, _ *combatant.Combatant, moves []*move.Move) *move.Move {
	return dice.Choice(r.src, moves)
}
