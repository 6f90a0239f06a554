package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/storage"
	"github.com/cory-johannsen/critter/internal/storage/sqlite"
	"github.com/cory-johannsen/critter/internal/storage/storagetest"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "critter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Conformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return openStore(t) })
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "critter.db")
	ctx := context.Background()

	s, err := sqlite.Open(path)
	require.NoError(t, err)
	c := creature.Creature{
		ID: "c-1", SpeciesID: 7, Name: "Squirtle", Level: 3,
		BaseStats: creature.Stats{HP: 44, Attack: 48, Defense: 65, Speed: 43},
		CurrentHP: 44, Types: []creature.TypeTag{creature.TypeWater},
	}
	require.NoError(t, s.CommitCreature(ctx, "ash", c))
	require.NoError(t, s.Close())

	s, err = sqlite.Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetCreature(ctx, "ash", "c-1")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestStore_GetBattle(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	sum := battle.Summary{
		SessionID:  "s-1",
		Outcome:    battle.PhaseVictory,
		Turns:      4,
		Seed:       7,
		Seeded:     true,
		Experience: []battle.Gain{{CreatureID: "c-1", Amount: 75}, {CreatureID: "c-2", Amount: 10}},
	}
	require.NoError(t, s.CommitBattle(ctx, sum))

	rec, err := s.GetBattle(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "victory", rec.Outcome)
	assert.Equal(t, uint64(7), rec.Seed)
	assert.Equal(t, map[string]int{"c-1": 75, "c-2": 10}, rec.Experience)

	_, err = s.GetBattle(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOpenMigrator_DownThenReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "critter.db")
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	m, err := sqlite.OpenMigrator(path)
	require.NoError(t, err)
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)
	assert.False(t, dirty)
	require.NoError(t, m.Down())
	srcErr, dbErr := m.Close()
	require.NoError(t, srcErr)
	require.NoError(t, dbErr)

	s, err = sqlite.Open(path)
	require.NoError(t, err, "reopening migrates back up")
	defer s.Close()
	_, err = s.GetCreature(context.Background(), "ash", "none")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
