// Package storagetest holds behaviour checks every storage.Store backend
// must pass.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/storage"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) storage.Store

func uniqueOwner(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func sampleCreature(id string) creature.Creature {
	return creature.Creature{
		ID:             id,
		SpeciesID:      4,
		Name:           "Charmander",
		Level:          5,
		Experience:     12,
		BaseStats:      creature.Stats{HP: 39, Attack: 52, Defense: 43, Speed: 65},
		CurrentHP:      20,
		Types:          []creature.TypeTag{creature.TypeFire},
		EvolutionStage: 1,
	}
}

// Run exercises newStore against the storage.Store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("creature round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		owner := uniqueOwner("trainer")
		c := sampleCreature("c-" + owner)

		require.NoError(t, s.CommitCreature(ctx, owner, c))
		got, err := s.GetCreature(ctx, owner, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	})

	t.Run("creature upsert keeps highest evolution stage", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		owner := uniqueOwner("trainer")
		c := sampleCreature("c-" + owner)
		c.EvolutionStage = 2
		require.NoError(t, s.CommitCreature(ctx, owner, c))

		c.EvolutionStage = 1
		c.Level = 9
		require.NoError(t, s.CommitCreature(ctx, owner, c))

		got, err := s.GetCreature(ctx, owner, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.EvolutionStage)
		assert.Equal(t, 9, got.Level)
	})

	t.Run("missing creature is not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetCreature(context.Background(), uniqueOwner("nobody"), "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("creatures are scoped to owner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		owner := uniqueOwner("trainer")
		other := uniqueOwner("rival")
		require.NoError(t, s.CommitCreature(ctx, owner, sampleCreature("a-"+owner)))
		require.NoError(t, s.CommitCreature(ctx, owner, sampleCreature("b-"+owner)))
		require.NoError(t, s.CommitCreature(ctx, other, sampleCreature("c-"+other)))

		mine, err := s.ListCreatures(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		_, err = s.GetCreature(ctx, other, "a-"+owner)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("egg progress never decreases", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		owner := uniqueOwner("breeder")
		egg := creature.Egg{
			ID: "e-" + owner, Owner: owner, Parent1Species: 1, Parent2Species: 4,
			Genetics: []byte{1, 2, 3, 4, 5, 6, 7, 8}, IncubationSteps: 4, RequiredSteps: 10,
		}
		require.NoError(t, s.CommitEgg(ctx, egg))
		egg.IncubationSteps = 2
		require.NoError(t, s.CommitEgg(ctx, egg))

		got, err := s.GetEgg(ctx, owner, egg.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, got.IncubationSteps)
		assert.Equal(t, egg.Genetics, got.Genetics)

		eggs, err := s.ListEggs(ctx, owner)
		require.NoError(t, err)
		require.Len(t, eggs, 1)
		assert.Equal(t, egg.ID, eggs[0].ID)
	})

	t.Run("hatched egg is removed", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		owner := uniqueOwner("breeder")
		egg := creature.Egg{ID: "e-" + owner, Owner: owner, Parent1Species: 1, Parent2Species: 1,
			Genetics: []byte{0}, IncubationSteps: 10, RequiredSteps: 10}
		require.NoError(t, s.CommitEgg(ctx, egg))

		egg.Hatched = true
		require.NoError(t, s.CommitEgg(ctx, egg))

		_, err := s.GetEgg(ctx, owner, egg.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		eggs, err := s.ListEggs(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, eggs)
	})

	t.Run("battle recorded once", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		sum := battle.Summary{
			SessionID:  "b-" + uniqueOwner("session"),
			Outcome:    battle.PhaseVictory,
			Turns:      3,
			Seed:       42,
			Seeded:     true,
			Experience: []battle.Gain{{CreatureID: "c-1", Amount: 150}},
		}
		require.NoError(t, s.CommitBattle(ctx, sum))
		require.NoError(t, s.CommitBattle(ctx, sum))
	})
}
