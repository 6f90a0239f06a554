// Package scripting runs sandboxed GopherLua scripts that drive opponent
// creatures. Scripts are grouped into named scopes, one VM each, and a
// shared global scope serves as the fallback for every name.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// hook call when no override is configured.
const DefaultInstructionLimit = 100_000

// safeLibs are the only standard libraries a script can see.
var safeLibs = []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath}

// strippedGlobals can reach the filesystem or the collector.
var strippedGlobals = []string{"dofile", "loadfile", "load", "collectgarbage", "require"}

// opcodeBudget cancels itself once Done has been polled more times than it
// has opcodes left. The GopherLua main loop polls Done once per opcode when
// a context is set, so the budget counts instructions exactly.
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

// NewSandboxedState returns an LState that sees only the base, table, string
// and math libraries, with the loaders and math.random removed. It starts
// with a budget of instLimit opcodes; callers refresh it with Limit before
// each hook call.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns the LState and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range safeLibs {
		open(L)
	}
	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	// Draws must come from engine.random so battles stay replayable.
	if mathLib, ok := L.GetGlobal("math").(*lua.LTable); ok {
		mathLib.RawSetString("random", lua.LNil)
		mathLib.RawSetString("randomseed", lua.LNil)
	}
	Limit(L, instLimit)
	return L
}

// Limit gives L a fresh budget of instLimit opcodes and returns the function
// that releases it.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
func Limit(L *lua.LState, instLimit int) context.CancelFunc {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	base, cancel := context.WithCancel(context.Background())
	b := &opcodeBudget{Context: base, cancel: cancel}
	b.left.Store(int64(instLimit))
	L.SetContext(b)
	return cancel
}
