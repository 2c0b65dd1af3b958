package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L for scope.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L with log, clock and fx tables.
func (m *Manager) RegisterModules(L *lua.LState, scope string) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.newLogModule(L, scope))
	L.SetField(engine, "clock", m.newClockModule(L))
	L.SetField(engine, "fx", m.newFxModule(L, scope))
	L.SetGlobal("engine", engine)
}

func (m *Manager) newLogModule(L *lua.LState, scope string) *lua.LTable {
	logger := m.logger.With(zap.String("scope", scope), zap.String("source", "lua"))
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
		"error": logger.Error,
	}
	for name, logFn := range levels {
		logFn := logFn
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			logFn(L.CheckString(1))
			return 0
		}))
	}
	return mod
}

func (m *Manager) newClockModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "now_ms", L.NewFunction(func(L *lua.LState) int {
		if m.Now == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(m.Now().Milliseconds()))
		return 1
	}))
	return mod
}

func (m *Manager) newFxModule(L *lua.LState, scope string) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "play_sound", L.NewFunction(func(L *lua.LState) int {
		cue := L.CheckString(1)
		if m.PlaySound != nil {
			m.PlaySound(scope, cue)
		}
		return 0
	}))
	return mod
}
