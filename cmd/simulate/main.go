// Package main provides the battle simulator binary that runs seeded
// AI-vs-AI trainer battles concurrently and commits their summaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/critter/internal/config"
	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/game/dice"
	"github.com/cory-johannsen/critter/internal/gameserver"
	"github.com/cory-johannsen/critter/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	battles := flag.Int("battles", 10, "number of battles to simulate")
	teamSize := flag.Int("team-size", 3, "creatures per team")
	level := flag.Int("level", 10, "level of every spawned creature")
	parallel := flag.Int("parallel", 4, "battles run at once")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewServiceLogger(cfg.Logging, "simulate")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	rt, err := gameserver.NewRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("building runtime", zap.Error(err))
	}
	defer rt.Close()

	logger.Info("simulation starting",
		zap.Int("battles", *battles),
		zap.Int("team_size", *teamSize),
		zap.Uint64("seed", rt.Seed),
	)

	var victories, defeats atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*parallel, 1))
	for i := 0; i < *battles; i++ {
		// Battle i is replayable from the run seed alone.
		seed := rt.Seed + uint64(i)
		g.Go(func() error {
			outcome, err := simulate(gctx, rt, seed, *teamSize, *level)
			if err != nil {
				return fmt.Errorf("battle %d (seed %d): %w", i, seed, err)
			}
			if outcome {
				victories.Add(1)
			} else {
				defeats.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	elapsed := time.Since(start)
	logger.Info("simulation finished",
		zap.Int64("victories", victories.Load()),
		zap.Int64("defeats", defeats.Load()),
		zap.Duration("elapsed", elapsed),
	)
	fmt.Fprintf(os.Stdout, "simulated %d battles: %d victories, %d defeats [%s]\n",
		*battles, victories.Load(), defeats.Load(), elapsed)
}

// simulate runs one autoplayed battle and reports whether the player side won.
func simulate(ctx context.Context, rt *gameserver.Runtime, seed uint64, teamSize, level int) (bool, error) {
	src := rt.NewSource(seed)
	engine := rt.NewEngine(src)

	player, err := randomTeam(rt, src, "p", seed, teamSize, level)
	if err != nil {
		return false, err
	}
	opponent, err := randomTeam(rt, src, "o", seed, teamSize, level)
	if err != nil {
		return false, err
	}

	sess, err := engine.NewSession(player, opponent, false)
	if err != nil {
		return false, err
	}
	sess, err = engine.Autoplay(sess)
	if err != nil {
		return false, err
	}
	_, sum, err := engine.Commit(ctx, sess, rt.Sink)
	if err != nil {
		return false, err
	}
	return sum.Outcome == battle.PhaseVictory, nil
}

func randomTeam(rt *gameserver.Runtime, src dice.Source, prefix string, seed uint64, size, level int) ([]creature.Creature, error) {
	ids := rt.Catalog.IDs()
	team := make([]creature.Creature, 0, size)
	for i := 0; i < size; i++ {
		id := fmt.Sprintf("%s-%d-%d", prefix, seed, i)
		c, err := rt.Catalog.Spawn(id, ids[src.Intn(len(ids))], level)
		if err != nil {
			return nil, err
		}
		team = append(team, c)
	}
	return team, nil
}
