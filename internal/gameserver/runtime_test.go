package gameserver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/critter/internal/config"
	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/gameserver"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	root := wd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("could not find repo root from %s", wd)
		}
		root = parent
	}
}

func shippedConfig(t *testing.T, driver string) config.Config {
	t.Helper()
	root := repoRoot(t)
	return config.Config{
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
		Storage: config.StorageConfig{Driver: driver, SQLitePath: filepath.Join(t.TempDir(), "critter.db")},
		Content: config.ContentConfig{
			SpeciesDir:     filepath.Join(root, "content", "species"),
			EvolutionsFile: filepath.Join(root, "content", "evolutions.yaml"),
			ScriptsDir:     filepath.Join(root, "content", "scripts"),
		},
		Engine: config.EngineConfig{LevelPolicy: "single", Seed: 99},
	}
}

func TestRuntime_AutoplayWithShippedContent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rt, err := gameserver.NewRuntime(context.Background(), shippedConfig(t, config.DriverLog), zap.New(core))
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, uint64(99), rt.Seed)
	require.NotNil(t, rt.Scripts)
	require.Greater(t, rt.Catalog.Len(), 1)

	ids := rt.Catalog.IDs()
	a, err := rt.Catalog.Spawn("a", ids[0], 10)
	require.NoError(t, err)
	b, err := rt.Catalog.Spawn("b", ids[1], 10)
	require.NoError(t, err)

	engine := rt.NewEngine(rt.NewSource(rt.Seed))
	sess, err := engine.NewSession([]creature.Creature{a}, []creature.Creature{b}, false)
	require.NoError(t, err)
	out, err := engine.Autoplay(sess)
	require.NoError(t, err)
	assert.True(t, out.Phase.Terminal())
	assert.True(t, out.Seeded)
	assert.Equal(t, uint64(99), out.Seed)

	_, _, err = engine.Commit(context.Background(), out, rt.Sink)
	require.NoError(t, err)
	// The engine and the log sink each record the commit.
	assert.Equal(t, 2, logs.FilterMessage("battle committed").Len())
}

func TestRuntime_SQLiteEncounterPersists(t *testing.T) {
	rt, err := gameserver.NewRuntime(context.Background(), shippedConfig(t, config.DriverSQLite), zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()
	require.NotNil(t, rt.Eggs)

	svc := rt.Encounters()
	ids := rt.Catalog.IDs()
	p, err := rt.Catalog.Spawn("p1", ids[0], 30)
	require.NoError(t, err)
	_, err = svc.StartWild("ash", []creature.Creature{p}, 2)
	require.NoError(t, err)
	_, err = svc.Flee(context.Background(), "ash")
	require.NoError(t, err)
}

func TestNewRuntime_RejectsUnknownLevelPolicy(t *testing.T) {
	cfg := shippedConfig(t, config.DriverLog)
	cfg.Engine.LevelPolicy = "sometimes"
	_, err := gameserver.NewRuntime(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewRuntime_MissingSpeciesDir(t *testing.T) {
	cfg := shippedConfig(t, config.DriverLog)
	cfg.Content.SpeciesDir = filepath.Join(t.TempDir(), "missing")
	_, err := gameserver.NewRuntime(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRuntime_ScriptedOpponentReplaysFromSeed(t *testing.T) {
	cfg := shippedConfig(t, config.DriverLog)
	cfg.Content.ScriptsDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Content.ScriptsDir, "random.lua"), []byte(`
		function choose_move(state) return engine.random.intn(#state.moves) + 1 end
	`), 0o644))
	rt, err := gameserver.NewRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	ids := rt.Catalog.IDs()
	play := func() []battle.Event {
		a, err := rt.Catalog.Spawn("a", ids[0], 20)
		require.NoError(t, err)
		b, err := rt.Catalog.Spawn("b", ids[1], 20)
		require.NoError(t, err)
		engine := rt.NewEngine(rt.NewSource(123))
		sess, err := engine.NewSession([]creature.Creature{a}, []creature.Creature{b}, false)
		require.NoError(t, err)
		out, err := engine.Autoplay(sess)
		require.NoError(t, err)
		require.NotEmpty(t, out.Log)
		return out.Log
	}
	first := play()
	// an unrelated battle on the same runtime draws in between
	other := rt.NewEngine(rt.NewSource(5))
	c, err := rt.Catalog.Spawn("c", ids[0], 5)
	require.NoError(t, err)
	d, err := rt.Catalog.Spawn("d", ids[1], 5)
	require.NoError(t, err)
	sess, err := other.NewSession([]creature.Creature{c}, []creature.Creature{d}, false)
	require.NoError(t, err)
	_, err = other.Autoplay(sess)
	require.NoError(t, err)

	assert.Equal(t, first, play())
}
