package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/critter/internal/config"
	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/game/dice"
	"github.com/cory-johannsen/critter/internal/game/evolution"
	"github.com/cory-johannsen/critter/internal/game/incubation"
	"github.com/cory-johannsen/critter/internal/game/species"
	"github.com/cory-johannsen/critter/internal/observability"
	"github.com/cory-johannsen/critter/internal/storage"
)

var (
	// ErrEncounterActive is returned when a player starts an encounter while
	// another is still in progress.
	ErrEncounterActive = errors.New("encounter already in progress")
	// ErrNoEncounter is returned when a player acts without an encounter.
	ErrNoEncounter = errors.New("no encounter in progress")
	// ErrIncubatorFull is returned when breeding would exceed
	// incubation.MaxIncubating unhatched eggs.
	ErrIncubatorFull = errors.New("incubator full")
	// ErrNoWildSpecies is returned by StartWild when the catalog is empty.
	ErrNoWildSpecies = errors.New("no species available for a wild encounter")
)

// EncounterService owns the battle sessions of connected players and
// persists their results.
//
// Each player has a lock held for the whole of any operation on their
// session or eggs, so a session has exactly one writer even when a player
// acts from several goroutines. mu guards only the maps; persistence runs
// without it so players never wait on each other's storage I/O.
type EncounterService struct {
	engine      *battle.Engine
	catalog     *species.Catalog
	evolutions  *evolution.Table
	sink        storage.Sink
	eggs        storage.EggLister
	src         dice.Source
	newID       func() string
	stepsPerWin int
	eggSteps    int
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[string]battle.Session
	players  map[string]*sync.Mutex
}

// NewEncounterService creates an EncounterService.
//
// Precondition: engine, catalog, sink, src and logger must be non-nil.
// evolutions may be nil (evolution confirmation always fails); eggs may be
// nil (victories advance no eggs and breeding is not capped).
// Postcondition: Returns a service with no sessions. Non-positive incubation
// settings fall back to the incubation package defaults.
func NewEncounterService(
	engine *battle.Engine,
	catalog *species.Catalog,
	evolutions *evolution.Table,
	sink storage.Sink,
	eggs storage.EggLister,
	src dice.Source,
	cfg config.EngineConfig,
	logger *zap.Logger,
) *EncounterService {
	if engine == nil || catalog == nil || sink == nil || src == nil || logger == nil {
		panic("gameserver.NewEncounterService: engine, catalog, sink, src and logger must be non-nil")
	}
	stepsPerWin := cfg.IncubationStepsPerWin
	if stepsPerWin <= 0 {
		stepsPerWin = incubation.DefaultStepsPerWin
	}
	eggSteps := cfg.IncubationRequiredSteps
	if eggSteps <= 0 {
		eggSteps = incubation.DefaultRequiredSteps
	}
	return &EncounterService{
		engine:      engine,
		catalog:     catalog,
		evolutions:  evolutions,
		sink:        sink,
		eggs:        eggs,
		src:         src,
		newID:       uuid.NewString,
		stepsPerWin: stepsPerWin,
		eggSteps:    eggSteps,
		logger:      logger,
		sessions:    make(map[string]battle.Session),
		players:     make(map[string]*sync.Mutex),
	}
}

// lockPlayer acquires player's lock and returns its release.
func (s *EncounterService) lockPlayer(player string) func() {
	s.mu.Lock()
	l, ok := s.players[player]
	if !ok {
		l = &sync.Mutex{}
		s.players[player] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Session returns the in-progress session of player.
func (s *EncounterService) Session(player string) (battle.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[player]
	return sess, ok
}

// StartWild starts an encounter between player's team and one wild creature
// at level, chosen by rarity from the catalog.
//
// Precondition: team must hold at least one creature able to battle.
// Postcondition: Returns the new session in PhaseSelecting, or
// ErrEncounterActive, ErrNoWildSpecies, or a session construction error.
func (s *EncounterService) StartWild(player string, team []creature.Creature, level int) (battle.Session, error) {
	sp, ok := s.catalog.PickWild(s.src)
	if !ok {
		return battle.Session{}, ErrNoWildSpecies
	}
	wild, err := s.catalog.Spawn(s.newID(), sp.ID, level)
	if err != nil {
		return battle.Session{}, fmt.Errorf("spawning wild %s: %w", sp.Name, err)
	}
	return s.start(player, team, []creature.Creature{wild}, true)
}

// StartTrainer starts an encounter between player's team and a trainer team.
//
// Postcondition: Returns the new session, or ErrEncounterActive or a session
// construction error.
func (s *EncounterService) StartTrainer(player string, team, opponents []creature.Creature) (battle.Session, error) {
	return s.start(player, team, opponents, false)
}

func (s *EncounterService) start(player string, team, opponents []creature.Creature, wild bool) (battle.Session, error) {
	defer s.lockPlayer(player)()

	if _, ok := s.Session(player); ok {
		return battle.Session{}, fmt.Errorf("%w: player %q", ErrEncounterActive, player)
	}
	sess, err := s.engine.NewSession(team, opponents, wild)
	if err != nil {
		return battle.Session{}, err
	}
	s.mu.Lock()
	s.sessions[player] = sess
	s.mu.Unlock()
	s.logger.Info("encounter started",
		zap.String("player", player),
		zap.String("session_id", sess.ID),
		zap.Bool("wild", wild),
		zap.Int("team_size", len(team)),
		zap.Int("opponent_size", len(opponents)),
	)
	return sess, nil
}

// Submit applies the player's action and lets the opponent respond until the
// player must act again. A session that ends is committed and released.
//
// Precondition: a.Side must be battle.SidePlayer.
// Postcondition: Returns the resulting session. When the session is
// terminal it has already been committed; a persistence error is returned
// alongside the terminal session and the session is released regardless.
func (s *EncounterService) Submit(ctx context.Context, player string, a battle.Action) (battle.Session, error) {
	defer s.lockPlayer(player)()

	sess, ok := s.Session(player)
	if !ok {
		return battle.Session{}, fmt.Errorf("%w: player %q", ErrNoEncounter, player)
	}
	if a.Side != battle.SidePlayer {
		return sess, fmt.Errorf("%w: player submitted an action for the %s side", battle.ErrActionRejected, a.Side)
	}
	next, err := s.engine.Resolve(sess, a)
	if err != nil {
		return sess, err
	}
	s.mu.Lock()
	if next.Phase.Terminal() {
		delete(s.sessions, player)
	} else {
		s.sessions[player] = next
	}
	s.mu.Unlock()
	if !next.Phase.Terminal() {
		return next, nil
	}
	return s.finish(ctx, player, next)
}

// Flee ends the player's encounter without any creature updates.
func (s *EncounterService) Flee(ctx context.Context, player string) (battle.Session, error) {
	return s.Submit(ctx, player, battle.Flee(battle.SidePlayer))
}

// finish commits a terminal session and everything it changed. A failed
// write does not stop the others: every creature and egg update is attempted.
func (s *EncounterService) finish(ctx context.Context, player string, sess battle.Session) (battle.Session, error) {
	s.logger.Info("encounter ended",
		zap.String("player", player),
		zap.String("session_id", sess.ID),
		zap.String("outcome", sess.Phase.String()),
	)
	out, sum, err := s.engine.Commit(ctx, sess, s.sink)
	if errors.Is(err, battle.ErrNotTerminal) || errors.Is(err, battle.ErrAlreadyCommitted) {
		return out, err
	}

	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	for _, c := range sum.PlayerTeam() {
		if err := s.sink.CommitCreature(ctx, player, c); err != nil {
			errs = append(errs, err)
		}
	}
	if sum.Captured != nil {
		if err := s.sink.CommitCreature(ctx, player, *sum.Captured); err != nil {
			errs = append(errs, err)
		}
	}
	if sum.Outcome == battle.PhaseVictory {
		if err := s.advanceEggs(ctx, player); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("persisting encounter results",
			append(observability.SummaryFields(sum), zap.String("player", player), zap.Error(err))...)
		return out, fmt.Errorf("persisting results of %s: %w", sess.ID, err)
	}
	return out, nil
}

func (s *EncounterService) advanceEggs(ctx context.Context, player string) error {
	if s.eggs == nil {
		return nil
	}
	eggs, err := s.eggs.ListEggs(ctx, player)
	if err != nil {
		return fmt.Errorf("listing eggs: %w", err)
	}
	var errs []error
	for _, egg := range eggs {
		next := incubation.AdvanceBy(egg, s.stepsPerWin)
		if next.IncubationSteps == egg.IncubationSteps {
			continue
		}
		if err := s.sink.CommitEgg(ctx, next); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ConfirmEvolution evolves c, which player accepted from a battle's offer,
// and persists it.
//
// Postcondition: Returns the evolved creature, or an error wrapping
// evolution.ErrNotEligible when no evolution applies to c now.
func (s *EncounterService) ConfirmEvolution(ctx context.Context, player string, c creature.Creature) (creature.Creature, error) {
	if s.evolutions == nil {
		return creature.Creature{}, fmt.Errorf("%w: no evolution table loaded", evolution.ErrNotEligible)
	}
	rule, ok := evolution.Check(c, s.evolutions)
	if !ok {
		return creature.Creature{}, fmt.Errorf("%w: creature %q (species %d, level %d)",
			evolution.ErrNotEligible, c.ID, c.SpeciesID, c.Level)
	}
	c.EvolutionStage = s.evolutions.InferStage(c.SpeciesID, c.EvolutionStage)
	evolved, err := evolution.Apply(c, rule)
	if err != nil {
		return creature.Creature{}, err
	}
	if err := s.sink.CommitCreature(ctx, player, evolved); err != nil {
		return evolved, fmt.Errorf("persisting evolution of %q: %w", c.ID, err)
	}
	s.logger.Info("creature evolved",
		zap.String("player", player),
		zap.String("creature_id", c.ID),
		zap.Int("from_species", rule.FromSpeciesID),
		zap.Int("to_species", rule.ToSpeciesID),
		zap.Int("evolution_stage", evolved.EvolutionStage),
	)
	return evolved, nil
}

// Breed creates an egg from two of player's creatures and persists it.
//
// Postcondition: Returns the new egg, ErrIncubatorFull when player already
// holds incubation.MaxIncubating eggs, or incubation.ErrInvalidParent.
func (s *EncounterService) Breed(ctx context.Context, player string, parent1, parent2 creature.Creature) (creature.Egg, error) {
	defer s.lockPlayer(player)()

	if s.eggs != nil {
		held, err := s.eggs.ListEggs(ctx, player)
		if err != nil {
			return creature.Egg{}, fmt.Errorf("listing eggs: %w", err)
		}
		if len(held) >= incubation.MaxIncubating {
			return creature.Egg{}, fmt.Errorf("%w: %d of %d", ErrIncubatorFull, len(held), incubation.MaxIncubating)
		}
	}
	egg, err := incubation.NewEgg(player, parent1, parent2, s.eggSteps, s.src, s.newID)
	if err != nil {
		return creature.Egg{}, err
	}
	if err := s.sink.CommitEgg(ctx, egg); err != nil {
		return egg, fmt.Errorf("persisting egg: %w", err)
	}
	return egg, nil
}

// Hatch hatches a ready egg into a creature of one of its parents' species,
// persists the creature and removes the egg.
//
// Postcondition: Returns the hatched creature, or incubation.ErrEggNotReady.
func (s *EncounterService) Hatch(ctx context.Context, player string, egg creature.Egg) (creature.Creature, error) {
	defer s.lockPlayer(player)()

	if !incubation.IsReady(egg) {
		return creature.Creature{}, fmt.Errorf("%w: egg %q", incubation.ErrEggNotReady, egg.ID)
	}
	c, hatched, err := incubation.Hatch(egg, incubation.ChooseParent(egg, s.src), s.catalog, s.newID)
	if err != nil {
		return creature.Creature{}, err
	}
	if err := s.sink.CommitCreature(ctx, player, c); err != nil {
		return c, fmt.Errorf("persisting hatched creature: %w", err)
	}
	if err := s.sink.CommitEgg(ctx, hatched); err != nil {
		return c, fmt.Errorf("removing hatched egg: %w", err)
	}
	s.logger.Info("egg hatched",
		zap.String("player", player),
		zap.String("egg_id", egg.ID),
		zap.String("creature_id", c.ID),
		zap.Int("species_id", c.SpeciesID),
	)
	return c, nil
}
