package species_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/game/dice"
	"github.com/cory-johannsen/critter/internal/game/species"
)

func wildCatalog(t *testing.T, commons int, extra ...*species.Species) *species.Catalog {
	t.Helper()
	stats := creature.Stats{HP: 10, Attack: 10, Defense: 10, Speed: 10}
	var all []*species.Species
	for i := 1; i <= commons; i++ {
		all = append(all, &species.Species{
			ID: i, Name: fmt.Sprintf("Common%d", i),
			Types: []creature.TypeTag{creature.TypeNormal}, BaseStats: stats,
		})
	}
	for _, s := range extra {
		s.Types, s.BaseStats = []creature.TypeTag{creature.TypeFire}, stats
		all = append(all, s)
	}
	cat, err := species.NewCatalog(all)
	require.NoError(t, err)
	return cat
}

func TestPickWild_DrawsTierThenSpecies(t *testing.T) {
	cat := wildCatalog(t, 3, &species.Species{ID: 100, Name: "Legend", Rarity: species.RarityLegendary})

	// tiers common 0.60 and legendary 0.03; 0.5 of 0.63 lands in common,
	// then 0.5 of three commons picks the second
	s, ok := cat.PickWild(dice.NewScriptedSource(0.5))
	require.True(t, ok)
	assert.Equal(t, 2, s.ID)

	s, ok = cat.PickWild(dice.NewScriptedSource(0.99, 0.0))
	require.True(t, ok)
	assert.Equal(t, 100, s.ID)
}

func TestPickWild_TierShareIgnoresTierSize(t *testing.T) {
	cat := wildCatalog(t, 20,
		&species.Species{ID: 100, Name: "Legend", Rarity: species.RarityLegendary},
		&species.Species{ID: 101, Name: "Rare", Rarity: species.RarityRare},
	)
	src := dice.NewSeededSource(42)
	const picks = 100_000
	counts := map[int]int{}
	for i := 0; i < picks; i++ {
		s, ok := cat.PickWild(src)
		require.True(t, ok)
		counts[s.ID]++
	}

	// empty uncommon tier drops out: total weight 0.75
	assert.InDelta(t, 0.03/0.75, float64(counts[100])/picks, 0.005)
	assert.InDelta(t, 0.12/0.75, float64(counts[101])/picks, 0.008)
	for id := 1; id <= 20; id++ {
		assert.InDelta(t, 0.60/0.75/20, float64(counts[id])/picks, 0.008, "common %d", id)
	}
}

func TestPickWild_EmptyCatalog(t *testing.T) {
	cat, err := species.NewCatalog(nil)
	require.NoError(t, err)
	_, ok := cat.PickWild(dice.NewScriptedSource(0.5))
	assert.False(t, ok)
}
