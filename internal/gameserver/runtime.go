package gameserver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/critter/internal/config"
	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/dice"
	"github.com/cory-johannsen/critter/internal/game/evolution"
	"github.com/cory-johannsen/critter/internal/game/progression"
	"github.com/cory-johannsen/critter/internal/game/species"
	"github.com/cory-johannsen/critter/internal/scripting"
	"github.com/cory-johannsen/critter/internal/storage"
	"github.com/cory-johannsen/critter/internal/storage/logsink"
	"github.com/cory-johannsen/critter/internal/storage/postgres"
	"github.com/cory-johannsen/critter/internal/storage/sqlite"
)

// OpponentScope is the scripting scope opponent policies are called in. It
// normally resolves to the global scope loaded from the scripts directory.
const OpponentScope = "opponent"

// Runtime holds the content tables, collaborators and storage built from a
// Config. Engines share its tables but each gets its own random source.
type Runtime struct {
	Catalog    *species.Catalog
	Evolutions *evolution.Table
	Scripts    *scripting.Manager
	Sink       storage.Sink
	Eggs       storage.EggLister
	Seed       uint64

	cfg     config.Config
	policy  progression.Policy
	logger  *zap.Logger
	closers []func()
}

// NewRuntime loads content and opens storage as configured.
//
// Precondition: cfg must pass Validate; logger must be non-nil.
// Postcondition: Returns a ready Runtime the caller must Close, or an error
// with everything opened so far released.
func NewRuntime(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Runtime, error) {
	policy, err := progression.ParsePolicy(cfg.Engine.LevelPolicy)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{cfg: cfg, policy: policy, logger: logger}

	start := time.Now()
	rt.Catalog, err = species.LoadDirectory(cfg.Content.SpeciesDir)
	if err != nil {
		return nil, fmt.Errorf("loading species: %w", err)
	}
	if cfg.Content.EvolutionsFile != "" {
		rt.Evolutions, err = evolution.LoadFile(cfg.Content.EvolutionsFile)
		if err != nil {
			return nil, fmt.Errorf("loading evolutions: %w", err)
		}
	}
	rules := 0
	if rt.Evolutions != nil {
		rules = rt.Evolutions.Len()
	}
	logger.Info("content loaded",
		zap.Int("species", rt.Catalog.Len()),
		zap.Int("evolution_rules", rules),
		zap.Duration("elapsed", time.Since(start)),
	)

	rt.Seed = cfg.Engine.Seed
	if rt.Seed == 0 {
		if rt.Seed, err = dice.NewSeed(); err != nil {
			return nil, err
		}
	}

	if cfg.Content.ScriptsDir != "" {
		rt.Scripts = scripting.NewManager(rt.NewSource(rt.Seed), logger)
		if err := rt.Scripts.LoadGlobal(cfg.Content.ScriptsDir, cfg.Content.InstructionLimit); err != nil {
			rt.Scripts.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, rt.Scripts.Close)
	}

	if err := rt.openStorage(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) openStorage(ctx context.Context) error {
	switch rt.cfg.Storage.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, rt.cfg.Database)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, store.Close)
		rt.Sink, rt.Eggs = logsink.New(rt.logger, store), store
	case config.DriverSQLite:
		store, err := sqlite.Open(rt.cfg.Storage.SQLitePath)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, func() { _ = store.Close() })
		rt.Sink, rt.Eggs = logsink.New(rt.logger, store), store
	default:
		rt.Sink = logsink.New(rt.logger, nil)
	}
	rt.logger.Info("storage ready", zap.String("driver", rt.cfg.Storage.Driver))
	return nil
}

// NewSource returns a seeded source, wrapped to log every draw when
// configured.
func (rt *Runtime) NewSource(seed uint64) dice.Source {
	src := dice.NewSeededSource(seed)
	if rt.cfg.Engine.LogDraws {
		return dice.NewLoggedSource(src, rt.logger)
	}
	return src
}

// NewEngine builds an Engine over src using the configured level policy and,
// when scripts are loaded and define choose_move, the Lua opponent policy.
func (rt *Runtime) NewEngine(src dice.Source) *battle.Engine {
	opts := []battle.Option{battle.WithLevelPolicy(rt.policy)}
	if rt.Scripts != nil && rt.Scripts.HasHook(OpponentScope, scripting.ChooseMoveHook) {
		opts = append(opts, battle.WithOpponentPolicy(scripting.NewPolicy(rt.Scripts, OpponentScope, src)))
	}
	return battle.NewEngine(rt.Catalog, rt.Evolutions, src, rt.logger, opts...)
}

// Encounters builds an EncounterService sharing the runtime's storage.
func (rt *Runtime) Encounters() *EncounterService {
	src := rt.NewSource(rt.Seed)
	return NewEncounterService(rt.NewEngine(src), rt.Catalog, rt.Evolutions, rt.Sink, rt.Eggs, src, rt.cfg.Engine, rt.logger)
}

// Close releases storage and scripting resources in reverse order of opening.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
