package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/critter/internal/game/combat"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/game/dice"
)

func fighter(level, attack, defense int) creature.Creature {
	return creature.Creature{
		ID:        "f",
		SpeciesID: 1,
		Name:      "Fighter",
		Level:     level,
		BaseStats: creature.Stats{HP: 100, Attack: attack, Defense: defense, Speed: 50},
		CurrentHP: 100,
	}
}

// noCrit pins the random factor at u and keeps the critical roll above 1/16.
func noCrit(u float64) *dice.ScriptedSource { return dice.NewScriptedSource(u, 0.5) }

func TestResolveDamage_LevelFourScenario(t *testing.T) {
	// base = floor((2*4/5 + 2) * 40 * 50 / 45 / 50 + 2) = floor(3.6*40/45 + 2) = floor(5.2) = 5
	attacker := fighter(4, 50, 40)
	defender := fighter(4, 40, 45)
	move := creature.Move{Name: "Tackle", Power: 40, Type: creature.TypeNormal}

	res, err := combat.ResolveDamage(attacker, defender, move, noCrit(1.0))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Base)
	assert.Equal(t, 1.0, res.RandomFactor)
	assert.Equal(t, 5, res.Damage)
	assert.False(t, res.Critical)
}

func TestResolveDamage_MinimumRandomFactor(t *testing.T) {
	attacker := fighter(50, 120, 40)
	defender := fighter(50, 40, 60)
	move := creature.Move{Name: "Slam", Power: 80}

	// (110 * 80 * 120) / (250 * 60) = 1056000 / 15000 = 70 (70.4 floored), +2 = 72
	res, err := combat.ResolveDamage(attacker, defender, move, noCrit(0))
	require.NoError(t, err)
	assert.Equal(t, 72, res.Base)
	assert.Equal(t, 61, res.Damage) // floor(72 * 0.85) = floor(61.2)
}

func TestResolveDamage_UnnamedMoveUsesDefaultPower(t *testing.T) {
	attacker := fighter(5, 50, 50)
	defender := fighter(5, 50, 50)

	res, err := combat.ResolveDamage(attacker, defender, creature.Move{}, noCrit(1.0))
	require.NoError(t, err)
	assert.Equal(t, combat.DefaultMove, res.Move)
	assert.Equal(t, combat.BaseDamage(5, combat.DefaultPower, 50, 50), res.Base)
}

func TestResolveDamage_ZeroPowerLeavesResidualDamage(t *testing.T) {
	attacker := fighter(10, 80, 40)
	defender := fighter(10, 40, 80)
	move := creature.Move{Name: "Splash", Power: 0}

	res, err := combat.ResolveDamage(attacker, defender, move, noCrit(0.5))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Base)
	assert.Equal(t, 1, res.Damage) // floor(2 * 0.925)

	res, err = combat.ResolveDamage(attacker, defender, move, noCrit(1.0))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Damage)
}

func TestResolveDamage_NegativePowerIsInvalid(t *testing.T) {
	_, err := combat.ResolveDamage(fighter(1, 10, 10), fighter(1, 10, 10), creature.Move{Name: "Bad", Power: -1}, noCrit(0.5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, combat.ErrInvalidMove))
}

func TestResolveDamage_CriticalBelowOneSixteenth(t *testing.T) {
	attacker := fighter(4, 50, 40)
	defender := fighter(4, 40, 45)
	move := creature.Move{Name: "Tackle", Power: 40}

	res, err := combat.ResolveDamage(attacker, defender, move, dice.NewScriptedSource(1.0, 0.0624))
	require.NoError(t, err)
	assert.True(t, res.Critical)
	assert.Equal(t, 10, res.Damage)

	res, err = combat.ResolveDamage(attacker, defender, move, dice.NewScriptedSource(1.0, 0.0625))
	require.NoError(t, err)
	assert.False(t, res.Critical)
}

func TestResolveDamage_Property_DamageNeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		attacker := fighter(rapid.IntRange(1, 100).Draw(rt, "level"), rapid.IntRange(1, 500).Draw(rt, "attack"), 10)
		defender := fighter(1, 10, rapid.IntRange(1, 500).Draw(rt, "defense"))
		move := creature.Move{Name: "M", Power: rapid.IntRange(0, 250).Draw(rt, "power")}
		src := dice.NewScriptedSource(
			rapid.Float64Range(0, 1).Draw(rt, "u1"),
			rapid.Float64Range(0, 1).Draw(rt, "u2"),
		)
		res, err := combat.ResolveDamage(attacker, defender, move, src)
		require.NoError(rt, err)
		assert.GreaterOrEqual(rt, res.Damage, 0)
		assert.GreaterOrEqual(rt, res.RandomFactor, 0.85)
		assert.LessOrEqual(rt, res.RandomFactor, 1.0)
	})
}

func TestResolveDamage_Property_CriticalExactlyDoubles(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		attacker := fighter(rapid.IntRange(1, 100).Draw(rt, "level"), rapid.IntRange(1, 500).Draw(rt, "attack"), 10)
		defender := fighter(1, 10, rapid.IntRange(1, 500).Draw(rt, "defense"))
		move := creature.Move{Name: "M", Power: rapid.IntRange(0, 250).Draw(rt, "power")}
		u := rapid.Float64Range(0, 1).Draw(rt, "u")

		plain, err := combat.ResolveDamage(attacker, defender, move, dice.NewScriptedSource(u, 0.99))
		require.NoError(rt, err)
		crit, err := combat.ResolveDamage(attacker, defender, move, dice.NewScriptedSource(u, 0.0))
		require.NoError(rt, err)

		require.True(rt, crit.Critical)
		assert.Equal(rt, plain.Damage*2, crit.Damage)
	})
}

func TestApplyDamage_Property_Clamped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 500).Draw(rt, "max_hp")
		hp := rapid.IntRange(0, maxHP).Draw(rt, "hp")
		dmg := rapid.IntRange(0, 1000).Draw(rt, "dmg")
		got := combat.ApplyDamage(hp, dmg, maxHP)
		want := hp - dmg
		if want < 0 {
			want = 0
		}
		assert.Equal(rt, want, got)
	})
}
