package scripting

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/veteran/internal/game/combatant"
	"github.com/cory-johannsen/veteran/internal/game/move"
)

// ChooseMoveHook is the Lua global an opponent AI script defines:
//
//	function choose_move(self, foe, moves) return moves[1].name end
//
// self and foe are {name, species, state, life_state, veteran_score};
// moves is an array of {name, element, category, power, accuracy}.
const ChooseMoveHook = "choose_move"

// Selector picks an opponent's move by calling choose_move. A VM loaded under
// the opponent's lowercased species takes precedence over the global one.
type Selector struct {
	mgr    *Manager
	logger *zap.Logger
}

// NewSelector creates a Selector dispatching to mgr.
//
// Precondition: mgr must be non-nil.
func NewSelector(mgr *Manager, logger *zap.Logger) *Selector {
	if mgr == nil {
		panic("scripting.NewSelector: precondition violated: mgr must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{mgr: mgr, logger: logger}
}

// Select returns the move named by the script. Script errors, a missing hook
// and unknown names all fall back to the first move.
//
// Precondition: moves is non-empty.
// Postcondition: Returns an element of moves.
func (s *Selector) Select(self, foe *combatant.Combatant, moves []*move.Move) *move.Move {
	script := strings.ToLower(self.Species())
	ret, _ := s.mgr.CallHookWith(script, ChooseMoveHook, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{combatantTable(L, self), combatantTable(L, foe), movesTable(L, moves)}
	})

	name, ok := ret.(lua.LString)
	if !ok {
		s.logger.Warn("choose_move returned no move name, using first move",
			zap.String("script", script),
			zap.String("returned", ret.Type().String()),
		)
		return moves[0]
	}
	for _, m := range moves {
		if strings.EqualFold(m.Name, string(name)) {
			return m
		}
	}
	s.logger.Warn("choose_move returned unknown move, using first move",
		zap.String("script", script),
		zap.String("move", string(name)),
	)
	return moves[0]
}

func combatantTable(L *lua.LState, c *combatant.Combatant) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "name", lua.LString(c.Name()))
	L.SetField(t, "species", lua.LString(c.Species()))
	L.SetField(t, "state", lua.LString(c.DescriptiveState()))
	L.SetField(t, "life_state", lua.LString(c.LifeState().String()))
	L.SetField(t, "veteran_score", lua.LNumber(c.EffectiveVeteranScore()))
	return t
}

func movesTable(L *lua.LState, moves []*move.Move) *lua.LTable {
	t := L.CreateTable(len(moves), 0)
	for _, m := range moves {
		mt := L.NewTable()
		L.SetField(mt, "name", lua.LString(m.Name))
		L.SetField(mt, "element", lua.LString(string(m.Element)))
		L.SetField(mt, "category", lua.LString(m.Category.String()))
		L.SetField(mt, "power", lua.LNumber(m.BasePower))
		L.SetField(mt, "accuracy", lua.LNumber(m.Accuracy))
		t.Append(mt)
	}
	return t
}
