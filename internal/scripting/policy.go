package scripting

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/game/dice"
)

// ChooseMoveHook is the Lua global an opponent script defines. It receives
// a state table and returns the 1-based index of the move to use.
const ChooseMoveHook = "choose_move"

// ErrNoChoice is returned when choose_move is missing, fails, or returns
// something other than a valid move index.
var ErrNoChoice = errors.New("script made no valid move choice")

// Policy is a battle.OpponentPolicy backed by the choose_move hook of one
// scope.
//
// The state table passed to choose_move has the fields:
//
//	turn    number
//	self    {name, species_id, level, hp, max_hp, types}
//	target  {name, species_id, level, hp, max_hp, types}
//	moves   array of {name, power, type}
type Policy struct {
	mgr   *Manager
	scope string
	src   dice.Source
}

// NewPolicy returns a Policy calling choose_move in scope. engine.random
// inside the hook draws from src, which should be the source of the engine
// the policy serves so a seeded battle replays exactly. A nil src uses the
// Manager's source.
//
// Precondition: mgr must be non-nil.
func NewPolicy(mgr *Manager, scope string, src dice.Source) *Policy {
	if mgr == nil {
		panic("scripting.NewPolicy: mgr must not be nil")
	}
	return &Policy{mgr: mgr, scope: scope, src: src}
}

// ChooseMove implements battle.OpponentPolicy.
//
// Postcondition: Returns one of v.Self.Moves, or an error wrapping ErrNoChoice.
func (p *Policy) ChooseMove(v battle.View) (creature.Move, error) {
	if len(v.Self.Moves) == 0 {
		return creature.Move{}, fmt.Errorf("%w: %s has no moves", ErrNoChoice, v.Self.Creature.Name)
	}
	ret, err := p.mgr.CallHookWith(p.scope, ChooseMoveHook, p.src, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{stateTable(L, v)}
	})
	if err != nil {
		return creature.Move{}, fmt.Errorf("%w: %v", ErrNoChoice, err)
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		return creature.Move{}, fmt.Errorf("%w: %s returned %s", ErrNoChoice, ChooseMoveHook, ret.Type())
	}
	idx := int(n)
	if float64(idx) != float64(n) || idx < 1 || idx > len(v.Self.Moves) {
		return creature.Move{}, fmt.Errorf("%w: index %v outside 1..%d", ErrNoChoice, n, len(v.Self.Moves))
	}
	return v.Self.Moves[idx-1], nil
}

func stateTable(L *lua.LState, v battle.View) *lua.LTable {
	state := L.NewTable()
	state.RawSetString("turn", lua.LNumber(v.Turn))
	state.RawSetString("self", participantTable(L, v.Self))
	state.RawSetString("target", participantTable(L, v.Target))

	moves := L.NewTable()
	for _, m := range v.Self.Moves {
		mt := L.NewTable()
		mt.RawSetString("name", lua.LString(m.Name))
		mt.RawSetString("power", lua.LNumber(m.Power))
		mt.RawSetString("type", lua.LString(m.Type))
		moves.Append(mt)
	}
	state.RawSetString("moves", moves)
	return state
}

func participantTable(L *lua.LState, p battle.Participant) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(p.Creature.Name))
	t.RawSetString("species_id", lua.LNumber(p.Creature.SpeciesID))
	t.RawSetString("level", lua.LNumber(p.Creature.Level))
	t.RawSetString("hp", lua.LNumber(p.CurrentHP))
	t.RawSetString("max_hp", lua.LNumber(p.Creature.MaxHP()))
	types := L.NewTable()
	for _, tag := range p.Creature.Types {
		types.Append(lua.LString(tag))
	}
	t.RawSetString("types", types)
	return t
}
