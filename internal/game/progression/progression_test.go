package progression_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/game/progression"
)

func sample(level, exp int) creature.Creature {
	return creature.Creature{
		ID:         "c1",
		SpeciesID:  4,
		Name:       "Charmander",
		Level:      level,
		Experience: exp,
		BaseStats:  creature.Stats{HP: 39, Attack: 52, Defense: 43, Speed: 65},
		CurrentHP:  30,
		Types:      []creature.TypeTag{creature.TypeFire},
	}
}

func TestExperienceToNextLevel(t *testing.T) {
	assert.Equal(t, 216, progression.ExperienceToNextLevel(5))
	assert.Equal(t, 8, progression.ExperienceToNextLevel(1))
	assert.Equal(t, 4096, progression.ExperienceToNextLevel(15))
}

func TestExperienceToNextLevel_Property_Cubic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		l := rapid.IntRange(1, progression.MaxLevel).Draw(rt, "level")
		assert.Equal(rt, (l+1)*(l+1)*(l+1), progression.ExperienceToNextLevel(l))
	})
}

func TestExperienceReward(t *testing.T) {
	assert.Equal(t, 75, progression.ExperienceReward(1))
	assert.Equal(t, 375, progression.ExperienceReward(5))
	assert.Equal(t, 75, progression.ExperienceReward(0))
}

func TestGrantExperience_LevelFifteenScenario(t *testing.T) {
	c := sample(15, 0)
	res := progression.GrantExperience(c, 5000, progression.SingleLevel)

	assert.True(t, res.LeveledUp)
	assert.Equal(t, 16, res.NewLevel)
	assert.Equal(t, 1, res.LevelsGained)
	assert.Equal(t, 5000, res.Creature.Experience)
	assert.Equal(t, creature.Stats{HP: 42, Attack: 57, Defense: 47, Speed: 71}, res.Creature.BaseStats)
	assert.Equal(t, 30, res.Creature.CurrentHP)

	// input untouched
	assert.Equal(t, 15, c.Level)
	assert.Equal(t, 0, c.Experience)
}

func TestGrantExperience_BelowThreshold(t *testing.T) {
	res := progression.GrantExperience(sample(5, 100), 115, progression.SingleLevel)
	assert.False(t, res.LeveledUp)
	assert.Equal(t, 5, res.NewLevel)
	assert.Equal(t, 215, res.Creature.Experience)
	assert.Equal(t, sample(5, 0).BaseStats, res.Creature.BaseStats)
}

func TestGrantExperience_RolloverCrossesSeveralThresholds(t *testing.T) {
	// 5000 crosses 16^3 = 4096 and 17^3 = 4913 but not 18^3 = 5832.
	single := progression.GrantExperience(sample(15, 0), 5000, progression.SingleLevel)
	roll := progression.GrantExperience(sample(15, 0), 5000, progression.Rollover)

	assert.Equal(t, 16, single.NewLevel)
	assert.Equal(t, 17, roll.NewLevel)
	assert.Equal(t, 2, roll.LevelsGained)
	assert.Equal(t, creature.GrowStats(creature.GrowStats(sample(15, 0).BaseStats)), roll.Creature.BaseStats)
}

func TestGrantExperience_CappedAtMaxLevel(t *testing.T) {
	res := progression.GrantExperience(sample(progression.MaxLevel, 0), 10_000_000, progression.Rollover)
	assert.False(t, res.LeveledUp)
	assert.Equal(t, progression.MaxLevel, res.NewLevel)
}

func TestGrantExperience_Property_Rollover_Settles(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.IntRange(1, 60).Draw(rt, "level")
		amount := rapid.IntRange(0, 500_000).Draw(rt, "amount")
		res := progression.GrantExperience(sample(level, 0), amount, progression.Rollover)
		require.LessOrEqual(rt, res.NewLevel, progression.MaxLevel)
		assert.Equal(rt, res.NewLevel-level, res.LevelsGained)
		if res.NewLevel < progression.MaxLevel {
			assert.Less(rt, res.Creature.Experience, progression.ExperienceToNextLevel(res.NewLevel))
		}
		assert.LessOrEqual(rt, res.Creature.CurrentHP, res.Creature.BaseStats.HP)
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := progression.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, progression.SingleLevel, p)

	p, err = progression.ParsePolicy("rollover")
	require.NoError(t, err)
	assert.Equal(t, progression.Rollover, p)
	assert.Equal(t, "rollover", p.String())

	_, err = progression.ParsePolicy("cascade")
	assert.Error(t, err)
}
