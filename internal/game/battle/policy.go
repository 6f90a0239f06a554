package battle

import (
	"github.com/cory-johannsen/critter/internal/game/combat"
	"github.com/cory-johannsen/critter/internal/game/creature"
)

// View is what an OpponentPolicy sees when choosing a move.
type View struct {
	Turn   int
	Self   Participant
	Target Participant
}

// OpponentPolicy chooses the move for a side driven by the engine.
type OpponentPolicy interface {
	ChooseMove(v View) (creature.Move, error)
}

// OpponentPolicyFunc adapts a function to OpponentPolicy.
type OpponentPolicyFunc func(v View) (creature.Move, error)

// ChooseMove calls f.
func (f OpponentPolicyFunc) ChooseMove(v View) (creature.Move, error) { return f(v) }

// FirstMovePolicy always uses the first move of the creature's move set, or
// the default move when the set is empty.
type FirstMovePolicy struct{}

// ChooseMove implements OpponentPolicy.
func (FirstMovePolicy) ChooseMove(v View) (creature.Move, error) {
	if len(v.Self.Moves) == 0 {
		return combat.DefaultMove, nil
	}
	return v.Self.Moves[0], nil
}
