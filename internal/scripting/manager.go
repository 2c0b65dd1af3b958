package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// globalScope is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no scope VM is found.
const globalScope = "__global__"

// vm is one sandboxed LState and its per-call opcode budget.
type vm struct {
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per scope (usually a holder ID) and
// exposes hook dispatch.
//
// Manager is safe for concurrent CallHook. Each VM is single-threaded; the
// per-VM lock serializes calls into the same scope.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	locks  map[string]*sync.Mutex
	logger *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	Now       func() time.Duration
	PlaySound func(scope, cue string)
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty scope map.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		locks:  make(map[string]*sync.Mutex),
		logger: logger,
	}
}

// LoadScope creates a sandboxed VM for scope, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: Scope VM is registered; returns error on Lua load failure.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int) error {
	if scope == "" {
		return fmt.Errorf("scripting: LoadScope: scope must not be empty")
	}
	return m.loadInto(scope, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM for shared scripts reachable as a
// CallHook fallback from any scope.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalScope, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L, key)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.vms[key]; ok {
		lk := m.locks[key]
		lk.Lock()
		old.L.Close()
		lk.Unlock()
	} else {
		m.locks[key] = &sync.Mutex{}
	}
	m.vms[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()

	m.logger.Info("scripts loaded",
		zap.String("scope", key),
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// HasHook reports whether hook is defined in scope's VM or the global VM.
func (m *Manager) HasHook(scope, hook string) bool {
	v, lk := m.lookup(scope)
	if v == nil {
		return false
	}
	lk.Lock()
	defer lk.Unlock()
	return v.L.GetGlobal(hook).Type() == lua.LTFunction
}

// CallHook calls the named Lua global function in scope's VM. If the scope has
// no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	v, lk := m.lookup(scope)
	if v == nil {
		m.logger.Debug("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	lk.Lock()
	defer lk.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, nil
	}

	cancel := ResetBudget(v.L, v.limit)
	defer cancel()
	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

func (m *Manager) lookup(scope string) (*vm, *sync.Mutex) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := scope
	v, ok := m.vms[key]
	if !ok {
		key = globalScope
		v = m.vms[key]
	}
	if v == nil {
		return nil, nil
	}
	return v, m.locks[key]
}

// Close releases every VM.
//
// Postcondition: all scopes are removed; CallHook returns LNil afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.vms {
		lk := m.locks[key]
		lk.Lock()
		v.L.Close()
		lk.Unlock()
	}
	m.vms = make(map[string]*vm)
	m.locks = make(map[string]*sync.Mutex)
}
