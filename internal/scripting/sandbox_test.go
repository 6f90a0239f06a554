package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/critter/internal/scripting"
)

func TestNewSandboxedState_HidesUnsafeNames(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()
	for _, name := range []string{"os", "io", "debug", "dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), name)
	}
	assert.NoError(t, L.DoString(`assert(math.random == nil and math.randomseed == nil)`))
}

func TestNewSandboxedState_SafeLibsWork(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()
	err := L.DoString(`
		assert(math.floor(7 / 2) == 3)
		assert(string.format("%s-%d", "ember", 40) == "ember-40")
		local t = {3, 1, 2}
		table.sort(t)
		assert(t[1] == 1 and #t == 3)
	`)
	assert.NoError(t, err)
}

func TestLimit_RefreshesBudget(t *testing.T) {
	L := scripting.NewSandboxedState(50)
	defer L.Close()
	require.NoError(t, L.DoString(`function spin(n) local x = 0 for i = 1, n do x = x + i end return x end`))

	for i := 0; i < 5; i++ {
		release := scripting.Limit(L, 500)
		err := L.CallByParam(lua.P{Fn: L.GetGlobal("spin"), NRet: 1, Protect: true}, lua.LNumber(20))
		release()
		require.NoError(t, err, "call %d", i)
		assert.Equal(t, lua.LNumber(210), L.Get(-1))
		L.Pop(1)
	}
}

func TestProperty_RunawayLoopAlwaysStopped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 500).Draw(t, "limit")
		L := scripting.NewSandboxedState(limit)
		defer L.Close()
		if err := L.DoString(`while true do end`); err == nil {
			t.Fatalf("limit %d did not stop the loop", limit)
		}
	})
}
