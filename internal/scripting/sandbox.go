// Package scripting runs opponent AI scripts in GopherLua. Scripts only see
// the safe standard libraries and the engine.* module, and every call runs
// under a fresh opcode budget.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of a single script call when
// the configuration leaves it unset.
const DefaultInstructionLimit = 100_000

// safeLibs are the only standard libraries opened in a sandboxed state.
var safeLibs = []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath}

// blockedGlobals are removed after the base library is opened: they reach the
// filesystem, compile arbitrary chunks, or control the collector.
var blockedGlobals = []string{"dofile", "loadfile", "load", "collectgarbage", "require"}

// opcodeBudget cancels itself after a fixed number of opcodes. GopherLua's
// context-aware main loop polls Done once per opcode, so counting those polls
// counts executed instructions.
type opcodeBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func (b *opcodeBudget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// setInstructionBudget gives L a budget of limit opcodes, replacing any budget
// left from a previous call. A non-positive limit uses DefaultInstructionLimit.
func setInstructionBudget(L *lua.LState, limit int) context.CancelFunc {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &opcodeBudget{Context: ctx, cancel: cancel}
	b.left.Store(int64(limit))
	L.SetContext(b)
	return cancel
}

// NewSandboxedState creates a Lua state for opponent scripts.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil LState with only safe libraries loaded and
// an opcode budget installed. The caller must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range safeLibs {
		open(L)
	}
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	_ = setInstructionBudget(L, instLimit)
	return L
}
