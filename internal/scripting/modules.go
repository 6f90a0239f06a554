package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/critter/internal/game/dice"
)

// registerModules registers the engine.* Lua tables into v's state:
//
//	engine.log.debug/info/warn/error(msg)
//	engine.random.intn(n)   -- integer in [0, n)
//	engine.random.float()   -- float in [0, 1)
//
// engine.random draws from the source of the hook call in progress.
func (m *Manager) registerModules(v *vm) {
	L := v.L
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "random", m.randomModule(v))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		fn := fn
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func (m *Manager) randomModule(v *vm) *lua.LTable {
	source := func() dice.Source {
		if v.src != nil {
			return v.src
		}
		return m.src
	}
	L := v.L
	mod := L.NewTable()
	L.SetField(mod, "intn", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n <= 0 {
			L.ArgError(1, "n must be > 0")
			return 0
		}
		L.Push(lua.LNumber(source().Intn(n)))
		return 1
	}))
	L.SetField(mod, "float", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(source().Float64()))
		return 1
	}))
	return mod
}
