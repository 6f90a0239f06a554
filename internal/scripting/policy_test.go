package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/game/dice"
	"github.com/cory-johannsen/critter/internal/scripting"
)

// repoRoot walks up from the test's working directory to find the module root.
func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	root := wd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("could not find repo root from %s", wd)
		}
		root = parent
	}
}

func sampleView() battle.View {
	return battle.View{
		Turn: 3,
		Self: battle.Participant{
			Creature: creature.Creature{
				ID: "self", SpeciesID: 4, Name: "Charmander", Level: 5,
				BaseStats: creature.Stats{HP: 39, Attack: 52, Defense: 43, Speed: 65},
				CurrentHP: 39, Types: []creature.TypeTag{creature.TypeFire},
			},
			CurrentHP: 30,
			Moves: []creature.Move{
				{Name: "Scratch", Power: 40, Type: creature.TypeNormal},
				{Name: "Ember", Power: 60, Type: creature.TypeFire},
				{Name: "Growl", Power: 0, Type: creature.TypeNormal},
			},
		},
		Target: battle.Participant{
			Creature: creature.Creature{
				ID: "target", SpeciesID: 7, Name: "Squirtle", Level: 5,
				BaseStats: creature.Stats{HP: 44, Attack: 48, Defense: 65, Speed: 43},
				CurrentHP: 44, Types: []creature.TypeTag{creature.TypeWater},
			},
			CurrentHP: 12,
		},
	}
}

func policyFor(t *testing.T, src string) *scripting.Policy {
	t.Helper()
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadScope("trainer", writeTempLua(t, "policy.lua", src), 0))
	return scripting.NewPolicy(mgr, "trainer", nil)
}

func TestPolicy_ShippedStrongestMoveScript(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadGlobal(filepath.Join(repoRoot(t), "content", "scripts"), 0))
	p := scripting.NewPolicy(mgr, "any-trainer", nil)

	m, err := p.ChooseMove(sampleView())
	require.NoError(t, err)
	assert.Equal(t, "Ember", m.Name)
}

func TestPolicy_SeesStateTable(t *testing.T) {
	p := policyFor(t, `
		function choose_move(state)
			assert(state.turn == 3)
			assert(state.self.name == "Charmander")
			assert(state.self.hp == 30 and state.self.max_hp == 39)
			assert(state.self.types[1] == "fire")
			assert(state.target.species_id == 7)
			assert(state.target.hp == 12)
			assert(#state.moves == 3 and state.moves[3].name == "Growl")
			return 3
		end
	`)
	m, err := p.ChooseMove(sampleView())
	require.NoError(t, err)
	assert.Equal(t, "Growl", m.Name)
}

func TestPolicy_InvalidChoices(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing hook", `-- nothing`},
		{"returns nil", `function choose_move(state) return nil end`},
		{"returns string", `function choose_move(state) return "Ember" end`},
		{"zero index", `function choose_move(state) return 0 end`},
		{"past end", `function choose_move(state) return 4 end`},
		{"fractional", `function choose_move(state) return 1.5 end`},
		{"runtime error", `function choose_move(state) error("boom") end`},
		{"runaway", `function choose_move(state) while true do end end`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := policyFor(t, tc.src)
			_, err := p.ChooseMove(sampleView())
			assert.ErrorIs(t, err, scripting.ErrNoChoice)
		})
	}
}

func TestPolicy_NoMoves(t *testing.T) {
	p := policyFor(t, `function choose_move(state) return 1 end`)
	v := sampleView()
	v.Self.Moves = nil
	_, err := p.ChooseMove(v)
	assert.ErrorIs(t, err, scripting.ErrNoChoice)
}

func TestNewPolicy_PanicsOnNilManager(t *testing.T) {
	assert.Panics(t, func() { scripting.NewPolicy(nil, "x", nil) })
}

func TestProperty_PolicyReturnsMoveFromSet(t *testing.T) {
	mgr := scripting.NewManager(dice.NewSeededSource(3), zap.NewNop())
	defer mgr.Close()
	require.NoError(t, mgr.LoadScope("random", writeTempLua(t, "r.lua", `
		function choose_move(state) return engine.random.intn(#state.moves) + 1 end
	`), 0))
	p := scripting.NewPolicy(mgr, "random", nil)

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "moves")
		v := sampleView()
		v.Self.Moves = nil
		for i := 0; i < n; i++ {
			v.Self.Moves = append(v.Self.Moves, creature.Move{Name: string(rune('a' + i)), Power: i})
		}
		m, err := p.ChooseMove(v)
		require.NoError(rt, err)
		assert.Contains(rt, v.Self.Moves, m)
	})
}

func TestPolicy_DrawsFromItsOwnSource(t *testing.T) {
	mgr := scripting.NewManager(dice.NewScriptedSource(0.0), zap.NewNop())
	defer mgr.Close()
	require.NoError(t, mgr.LoadScope("random", writeTempLua(t, "r.lua", `
		function choose_move(state) return engine.random.intn(#state.moves) + 1 end
	`), 0))

	// 0.5 of three moves is index 1; the manager's source would give 0
	own := dice.NewScriptedSource(0.5)
	m, err := scripting.NewPolicy(mgr, "random", own).ChooseMove(sampleView())
	require.NoError(t, err)
	assert.Equal(t, "Ember", m.Name)
	assert.Equal(t, 1, own.Draws())

	m, err = scripting.NewPolicy(mgr, "random", nil).ChooseMove(sampleView())
	require.NoError(t, err)
	assert.Equal(t, "Scratch", m.Name)
}

func TestPolicy_SameSeedSameChoices(t *testing.T) {
	mgr := scripting.NewManager(dice.NewSeededSource(1), zap.NewNop())
	defer mgr.Close()
	require.NoError(t, mgr.LoadScope("random", writeTempLua(t, "r.lua", `
		function choose_move(state) return engine.random.intn(#state.moves) + 1 end
	`), 0))

	run := func(other *scripting.Policy) []string {
		p := scripting.NewPolicy(mgr, "random", dice.NewSeededSource(123))
		var names []string
		for i := 0; i < 20; i++ {
			m, err := p.ChooseMove(sampleView())
			require.NoError(t, err)
			names = append(names, m.Name)
			// another engine's policy drawing in between must not disturb p
			_, err = other.ChooseMove(sampleView())
			require.NoError(t, err)
		}
		return names
	}
	first := run(scripting.NewPolicy(mgr, "random", dice.NewSeededSource(7)))
	second := run(scripting.NewPolicy(mgr, "random", nil))
	assert.Equal(t, first, second)
}
