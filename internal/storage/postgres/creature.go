package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/storage"
)

// CreatureRepository provides owned creature persistence operations.
type CreatureRepository struct {
	db *pgxpool.Pool
}

// NewCreatureRepository creates a CreatureRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCreatureRepository(db *pgxpool.Pool) *CreatureRepository {
	return &CreatureRepository{db: db}
}

const creatureColumns = `id, species_id, name, level, experience,
		       hp, attack, defense, speed, current_hp, types, evolution_stage`

// Upsert inserts c for owner or updates the stored row. The stored
// evolution stage never decreases.
//
// Precondition: c must pass Validate; owner must be non-empty.
// Postcondition: Returns nil once the row reflects c.
func (r *CreatureRepository) Upsert(ctx context.Context, owner string, c creature.Creature) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("upserting creature %q: %w", c.ID, err)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO creatures
			(id, owner, species_id, name, level, experience,
			 hp, attack, defense, speed, current_hp, types, evolution_stage)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			owner           = EXCLUDED.owner,
			species_id      = EXCLUDED.species_id,
			name            = EXCLUDED.name,
			level           = EXCLUDED.level,
			experience      = EXCLUDED.experience,
			hp              = EXCLUDED.hp,
			attack          = EXCLUDED.attack,
			defense         = EXCLUDED.defense,
			speed           = EXCLUDED.speed,
			current_hp      = EXCLUDED.current_hp,
			types           = EXCLUDED.types,
			evolution_stage = GREATEST(creatures.evolution_stage, EXCLUDED.evolution_stage),
			updated_at      = NOW()`,
		c.ID, owner, c.SpeciesID, c.Name, c.Level, c.Experience,
		c.BaseStats.HP, c.BaseStats.Attack, c.BaseStats.Defense, c.BaseStats.Speed,
		c.CurrentHP, typeStrings(c.Types), c.EvolutionStage,
	)
	if err != nil {
		return fmt.Errorf("upserting creature %q: %w", c.ID, err)
	}
	return nil
}

// Get returns creature id owned by owner.
//
// Postcondition: Returns the creature, or an error wrapping storage.ErrNotFound.
func (r *CreatureRepository) Get(ctx context.Context, owner, id string) (creature.Creature, error) {
	row := r.db.QueryRow(ctx, `SELECT `+creatureColumns+` FROM creatures WHERE owner = $1 AND id = $2`, owner, id)
	c, err := scanCreature(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return creature.Creature{}, fmt.Errorf("creature %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return creature.Creature{}, fmt.Errorf("loading creature %q: %w", id, err)
	}
	return c, nil
}

// ListByOwner returns every creature owned by owner, oldest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CreatureRepository) ListByOwner(ctx context.Context, owner string) ([]creature.Creature, error) {
	rows, err := r.db.Query(ctx, `SELECT `+creatureColumns+` FROM creatures WHERE owner = $1 ORDER BY created_at ASC, id ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("listing creatures: %w", err)
	}
	defer rows.Close()

	var out []creature.Creature
	for rows.Next() {
		c, err := scanCreature(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning creature: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating creatures: %w", err)
	}
	return out, nil
}

func scanCreature(row pgx.Row) (creature.Creature, error) {
	var (
		c     creature.Creature
		types []string
	)
	err := row.Scan(
		&c.ID, &c.SpeciesID, &c.Name, &c.Level, &c.Experience,
		&c.BaseStats.HP, &c.BaseStats.Attack, &c.BaseStats.Defense, &c.BaseStats.Speed,
		&c.CurrentHP, &types, &c.EvolutionStage,
	)
	if err != nil {
		return creature.Creature{}, err
	}
	for _, t := range types {
		c.Types = append(c.Types, creature.TypeTag(t))
	}
	return c, nil
}

func typeStrings(types []creature.TypeTag) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
