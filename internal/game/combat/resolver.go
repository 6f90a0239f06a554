package combat

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/critter/internal/game/creature"
)

// ResolveDamage computes the outcome of attacker using move against defender.
// Two uniform values are drawn from src, in order: the random factor and the
// critical roll.
//
//	base         = floor((2*level/5 + 2) * power * attack / defense / 50 + 2)
//	randomFactor = 0.85 + u1 * 0.15
//	damage       = floor(base * randomFactor)
//	critical     = u2 < 1/16, doubling damage
//
// A zero-value move (empty name) uses DefaultMove. The function is pure: the
// caller applies the damage to the defender.
//
// Precondition: attacker and defender must have valid stats; src must be non-nil.
// Postcondition: Returns a result with Damage >= 0, or ErrInvalidMove when
// move.Power < 0.
func ResolveDamage(attacker, defender creature.Creature, move creature.Move, src Source) (DamageResult, error) {
	if move.Name == "" {
		move = DefaultMove
	}
	if move.Power < 0 {
		return DamageResult{}, fmt.Errorf("%w: %q has negative power %d", ErrInvalidMove, move.Name, move.Power)
	}

	atk := creature.EffectiveStats(attacker)
	def := creature.EffectiveStats(defender)
	base := BaseDamage(attacker.Level, move.Power, atk.Attack, def.Defense)

	u := src.Float64()
	percent := randomFactorMinPercent + u*randomFactorSpanPercent
	damage := int(math.Floor(float64(base) * percent / 100))
	if damage < 0 {
		damage = 0
	}

	critical := src.Float64() < CritChance
	if critical {
		damage *= 2
	}

	return DamageResult{
		Move:         move,
		Base:         base,
		RandomFactor: percent / 100,
		Damage:       damage,
		Critical:     critical,
	}, nil
}

// ApplyDamage returns hp reduced by damage and clamped to [0, maxHP].
//
// Postcondition: result == clamp(hp - damage, 0, maxHP).
func ApplyDamage(hp, damage, maxHP int) int {
	return creature.ClampHP(hp-damage, maxHP)
}
