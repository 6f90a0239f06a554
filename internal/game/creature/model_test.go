package creature_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/critter/internal/game/creature"
)

func validCreature() creature.Creature {
	return creature.Creature{
		ID:        "c-1",
		SpeciesID: 4,
		Name:      "Charmander",
		Level:     5,
		BaseStats: creature.Stats{HP: 39, Attack: 52, Defense: 43, Speed: 65},
		CurrentHP: 39,
		Types:     []creature.TypeTag{creature.TypeFire},
	}
}

func TestCreature_Validate(t *testing.T) {
	require.NoError(t, validCreature().Validate())

	tests := []struct {
		name   string
		mutate func(c *creature.Creature)
	}{
		{"zero level", func(c *creature.Creature) { c.Level = 0 }},
		{"negative experience", func(c *creature.Creature) { c.Experience = -1 }},
		{"zero attack", func(c *creature.Creature) { c.BaseStats.Attack = 0 }},
		{"hp above max", func(c *creature.Creature) { c.CurrentHP = 40 }},
		{"negative hp", func(c *creature.Creature) { c.CurrentHP = -1 }},
		{"no species", func(c *creature.Creature) { c.SpeciesID = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validCreature()
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, creature.ErrInvalidCreature))
		})
	}
}

func TestCreature_CloneDoesNotShareTypes(t *testing.T) {
	c := validCreature()
	cp := c.Clone()
	cp.Types[0] = creature.TypeWater
	assert.Equal(t, creature.TypeFire, c.Types[0])
	assert.True(t, c.HasType(creature.TypeFire))
	assert.False(t, c.HasType(creature.TypeWater))
}

func TestClampHP_Property_WithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 500).Draw(rt, "max_hp")
		hp := rapid.IntRange(-1000, 1000).Draw(rt, "hp")
		got := creature.ClampHP(hp, maxHP)
		assert.GreaterOrEqual(rt, got, 0)
		assert.LessOrEqual(rt, got, maxHP)
	})
}

func TestGrowStats(t *testing.T) {
	got := creature.GrowStats(creature.Stats{HP: 39, Attack: 52, Defense: 43, Speed: 65})
	assert.Equal(t, creature.Stats{HP: 42, Attack: 57, Defense: 47, Speed: 71}, got)
}

func TestGrowStats_Property_FloorOfTenPercent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := creature.Stats{
			HP:      rapid.IntRange(1, 100000).Draw(rt, "hp"),
			Attack:  rapid.IntRange(1, 100000).Draw(rt, "attack"),
			Defense: rapid.IntRange(1, 100000).Draw(rt, "defense"),
			Speed:   rapid.IntRange(1, 100000).Draw(rt, "speed"),
		}
		g := creature.GrowStats(s)
		assert.Equal(rt, s.Attack*11/10, g.Attack)
		assert.Equal(rt, s.HP*11/10, g.HP)
		assert.GreaterOrEqual(rt, g.Defense, s.Defense)
		assert.GreaterOrEqual(rt, g.Speed, s.Speed)
	})
}

func TestEffectiveStats_IsBaseStats(t *testing.T) {
	c := validCreature()
	assert.Equal(t, c.BaseStats, creature.EffectiveStats(c))
}

func TestEgg_CloneDoesNotShareGenetics(t *testing.T) {
	e := creature.Egg{ID: "e", Genetics: []byte{1, 2}}
	cp := e.Clone()
	cp.Genetics[0] = 9
	assert.Equal(t, byte(1), e.Genetics[0])
}
