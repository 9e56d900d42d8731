package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/veteran/internal/game/dice"
)

// globalScript is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no named VM is found.
const globalScript = "__global__"

type vm struct {
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per script set and exposes hook dispatch.
//
// Manager is safe for concurrent use. An LState is single-threaded, so hook
// calls are serialized.
type Manager struct {
	mu     sync.Mutex
	states map[string]*vm
	src    dice.Source
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no loaded scripts.
func NewManager(src dice.Source, logger *zap.Logger) *Manager {
	if src == nil {
		panic("scripting.NewManager: precondition violated: src must be non-nil")
	}
	if logger == nil {
		panic("scripting.NewManager: precondition violated: logger must be non-nil")
	}
	return &Manager{
		states: make(map[string]*vm),
		src:    src,
		logger: logger,
	}
}

// LoadScripts creates a sandboxed VM for name, registers the engine.* module,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: name must be non-empty; scriptDir must be a readable directory.
// Postcondition: The VM is registered, replacing any previous one; returns
// error on Lua load failure.
func (m *Manager) LoadScripts(name, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, name, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)
	return m.loadInto(name, luaFiles, instLimit)
}

// LoadFile is LoadScripts for a single file.
func (m *Manager) LoadFile(name, path string, instLimit int) error {
	return m.loadInto(name, []string{path}, instLimit)
}

// LoadGlobal loads the shared VM used as the CallHook fallback.
//
// Precondition: scriptDir must be a readable directory.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.LoadScripts(globalScript, scriptDir, instLimit)
}

// LoadTree loads root's top-level *.lua files as the global VM and every
// subdirectory as a VM named after the lowercased directory name.
//
// Precondition: root must be a readable directory.
// Postcondition: Returns the names of the per-directory VMs loaded.
func (m *Manager) LoadTree(root string, instLimit int) ([]string, error) {
	if err := m.LoadGlobal(root, instLimit); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script root %q: %w", root, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if err := m.LoadScripts(name, filepath.Join(root, e.Name()), instLimit); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (m *Manager) loadInto(key string, files []string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L, key)

	for _, path := range files {
		setInstructionBudget(L, instLimit)
		if err := L.DoFile(path); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		old.L.Close()
	}
	m.states[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()
	m.logger.Info("scripts loaded", zap.String("name", key), zap.Int("files", len(files)))
	return nil
}

// Has reports whether a VM is loaded under name, ignoring the global fallback.
func (m *Manager) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[name]
	return ok
}

// CallHook calls the named Lua global function in name's VM, falling back to
// the global VM. Returns (LNil, nil) if the hook is not defined or no VM
// exists. Lua runtime errors, including an exhausted opcode budget, are
// logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(name, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.CallHookWith(name, hook, func(*lua.LState) []lua.LValue { return args })
}

// CallHookWith is CallHook with arguments built inside the target VM, for
// callers that need to allocate tables.
func (m *Manager) CallHookWith(name, hook string, build func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.states[name]
	if !ok {
		v = m.states[globalScript]
	}
	if v == nil {
		m.logger.Info("scripting: no VM for script",
			zap.String("script", name),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	L := v.L
	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	cancel := setInstructionBudget(L, v.limit)
	defer cancel()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, build(L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("script", name),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.states {
		v.L.Close()
		delete(m.states, key)
	}
}
