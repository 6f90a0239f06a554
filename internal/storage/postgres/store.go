package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
)

// Store combines the repositories into a storage.Store.
type Store struct {
	Creatures *CreatureRepository
	Eggs      *EggRepository
	Battles   *BattleRepository

	db *pgxpool.Pool
}

// NewStore creates a Store over db. Closing the Store closes db.
//
// Precondition: db must be connected and migrated.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		Creatures: NewCreatureRepository(db),
		Eggs:      NewEggRepository(db),
		Battles:   NewBattleRepository(db),
		db:        db,
	}
}

// CommitCreature implements storage.Sink.
func (s *Store) CommitCreature(ctx context.Context, owner string, c creature.Creature) error {
	return s.Creatures.Upsert(ctx, owner, c)
}

// CommitEgg implements storage.Sink.
func (s *Store) CommitEgg(ctx context.Context, egg creature.Egg) error {
	return s.Eggs.Upsert(ctx, egg)
}

// CommitBattle implements storage.Sink.
func (s *Store) CommitBattle(ctx context.Context, sum battle.Summary) error {
	return s.Battles.Record(ctx, sum)
}

// ListEggs implements storage.EggLister.
func (s *Store) ListEggs(ctx context.Context, owner string) ([]creature.Egg, error) {
	return s.Eggs.ListByOwner(ctx, owner)
}

// GetCreature implements storage.Store.
func (s *Store) GetCreature(ctx context.Context, owner, id string) (creature.Creature, error) {
	return s.Creatures.Get(ctx, owner, id)
}

// ListCreatures implements storage.Store.
func (s *Store) ListCreatures(ctx context.Context, owner string) ([]creature.Creature, error) {
	return s.Creatures.ListByOwner(ctx, owner)
}

// GetEgg implements storage.Store.
func (s *Store) GetEgg(ctx context.Context, owner, id string) (creature.Egg, error) {
	return s.Eggs.Get(ctx, owner, id)
}
