// Package combat resolves a single attack: damage and critical hits.
package combat

import (
	"errors"

	"github.com/cory-johannsen/critter/internal/game/creature"
)

// ErrInvalidMove is returned when a move cannot be used, e.g. negative power.
var ErrInvalidMove = errors.New("invalid move")

// DefaultPower is the power used when an attack does not name a move.
const DefaultPower = 50

// DefaultMove is the move used when an attack does not name one.
var DefaultMove = creature.Move{Name: "Strike", Power: DefaultPower, Type: creature.TypeNormal}

// CritChance is the probability of a critical hit (1/16).
const CritChance = 1.0 / 16.0

// Random factor bounds expressed in percent: the factor is in [0.85, 1.00].
const (
	randomFactorMinPercent  = 85
	randomFactorSpanPercent = 15
)

// Source is the subset of dice.Source used by the resolver.
// Using a local interface keeps combat free of a dice import.
type Source interface {
	Float64() float64
}

// DamageResult holds the outcome of one attack.
type DamageResult struct {
	// Move is the move that was used, after defaulting.
	Move creature.Move
	// Base is the pre-random damage: floor((2L/5+2)*P*A/D/50 + 2).
	Base int
	// RandomFactor is the applied factor in [0.85, 1.00].
	RandomFactor float64
	// Damage is the final damage, doubled when Critical.
	Damage int
	// Critical is true when the 1/16 critical roll succeeded.
	Critical bool
}

// BaseDamage computes floor((2*level/5 + 2) * power * attack / defense / 50 + 2)
// in fixed-point integer arithmetic: (2L+10)*P*A / (250*D) + 2.
//
// Precondition: level >= 1; power >= 0; attack >= 1; defense >= 1.
// Postcondition: Returns >= 2.
func BaseDamage(level, power, attack, defense int) int {
	if defense < 1 {
		defense = 1
	}
	num := uint64(2*level+10) * uint64(power) * uint64(attack)
	den := uint64(250) * uint64(defense)
	return int(num/den) + 2
}
