package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/game/evolution"
	"github.com/cory-johannsen/critter/internal/storage"
)

func TestTypesRoundTrip(t *testing.T) {
	assert.Equal(t, "fire,water", storage.TypesToString([]creature.TypeTag{creature.TypeFire, creature.TypeWater}))
	assert.Nil(t, storage.TypesFromString(""))
	rapid.Check(t, func(rt *rapid.T) {
		tags := rapid.SliceOfN(rapid.SampledFrom([]creature.TypeTag{
			creature.TypeNormal, creature.TypeFire, creature.TypeWater, creature.TypeGrass, creature.TypeElectric,
		}), 1, 3).Draw(rt, "types")
		assert.Equal(rt, tags, storage.TypesFromString(storage.TypesToString(tags)))
	})
}

func TestNewBattleRecord(t *testing.T) {
	sum := battle.Summary{
		SessionID:  "s1",
		Outcome:    battle.PhaseVictory,
		Turns:      7,
		Experience: []battle.Gain{{CreatureID: "a", Amount: 75}},
		LevelUps:   []battle.LevelUp{{CreatureID: "a", From: 3, To: 4}},
		Offers:     []battle.Offer{{CreatureID: "a", Rule: evolution.Rule{ToSpeciesID: 5, ToName: "Charmeleon"}}},
	}
	rec := storage.NewBattleRecord(sum)
	assert.Equal(t, "victory", rec.Outcome)
	assert.Equal(t, map[string]int{"a": 75}, rec.Experience)
	assert.Equal(t, []storage.LevelUpRecord{{CreatureID: "a", From: 3, To: 4}}, rec.LevelUps)
	assert.Equal(t, []storage.OfferRecord{{CreatureID: "a", ToSpeciesID: 5, ToName: "Charmeleon"}}, rec.Offers)
	assert.Empty(t, rec.CapturedID)
}
