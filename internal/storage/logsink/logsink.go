// Package logsink provides a storage.Sink that logs every commit and
// optionally forwards it to another sink.
package logsink

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/observability"
	"github.com/cory-johannsen/critter/internal/storage"
)

// Sink logs commits at info level and errors from the wrapped sink at error
// level.
type Sink struct {
	logger *zap.Logger
	next   storage.Sink
}

// New returns a Sink that logs to logger and forwards to next.
//
// Precondition: logger must be non-nil. next may be nil, in which case
// commits are only logged.
func New(logger *zap.Logger, next storage.Sink) *Sink {
	if logger == nil {
		panic("logsink.New: logger must not be nil")
	}
	return &Sink{logger: logger.Named("sink"), next: next}
}

// CommitCreature implements storage.Sink.
func (s *Sink) CommitCreature(ctx context.Context, owner string, c creature.Creature) error {
	fields := []zap.Field{
		zap.String("owner", owner),
		zap.String("creature_id", c.ID),
		zap.Int("species_id", c.SpeciesID),
		zap.Int("level", c.Level),
		zap.Int("experience", c.Experience),
		zap.Int("current_hp", c.CurrentHP),
		zap.Int("evolution_stage", c.EvolutionStage),
	}
	s.logger.Info("creature committed", fields...)
	if s.next == nil {
		return nil
	}
	if err := s.next.CommitCreature(ctx, owner, c); err != nil {
		s.logger.Error("creature commit failed", append(fields, zap.Error(err))...)
		return err
	}
	return nil
}

// CommitEgg implements storage.Sink.
func (s *Sink) CommitEgg(ctx context.Context, egg creature.Egg) error {
	fields := []zap.Field{
		zap.String("owner", egg.Owner),
		zap.String("egg_id", egg.ID),
		zap.Int("incubation_steps", egg.IncubationSteps),
		zap.Int("required_steps", egg.RequiredSteps),
		zap.Bool("hatched", egg.Hatched),
	}
	s.logger.Info("egg committed", fields...)
	if s.next == nil {
		return nil
	}
	if err := s.next.CommitEgg(ctx, egg); err != nil {
		s.logger.Error("egg commit failed", append(fields, zap.Error(err))...)
		return err
	}
	return nil
}

// CommitBattle implements storage.Sink.
func (s *Sink) CommitBattle(ctx context.Context, sum battle.Summary) error {
	fields := observability.SummaryFields(sum)
	s.logger.Info("battle committed", fields...)
	if s.next == nil {
		return nil
	}
	if err := s.next.CommitBattle(ctx, sum); err != nil {
		s.logger.Error("battle commit failed", append(fields, zap.Error(err))...)
		return err
	}
	return nil
}
