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

// EggRepository provides egg persistence operations.
type EggRepository struct {
	db *pgxpool.Pool
}

// NewEggRepository creates an EggRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEggRepository(db *pgxpool.Pool) *EggRepository {
	return &EggRepository{db: db}
}

// Upsert stores egg. Incubation progress stored for the egg never decreases.
// A hatched egg is deleted instead.
//
// Precondition: egg.ID and egg.Owner must be non-empty.
func (r *EggRepository) Upsert(ctx context.Context, egg creature.Egg) error {
	if egg.Hatched {
		return r.Delete(ctx, egg.ID)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO eggs
			(id, owner, parent1_species, parent2_species, genetics, incubation_steps, required_steps)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			incubation_steps = GREATEST(eggs.incubation_steps, EXCLUDED.incubation_steps),
			required_steps   = EXCLUDED.required_steps,
			updated_at       = NOW()`,
		egg.ID, egg.Owner, egg.Parent1Species, egg.Parent2Species, egg.Genetics,
		egg.IncubationSteps, egg.RequiredSteps,
	)
	if err != nil {
		return fmt.Errorf("upserting egg %q: %w", egg.ID, err)
	}
	return nil
}

// Delete removes egg id. Deleting a missing egg is not an error.
func (r *EggRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM eggs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting egg %q: %w", id, err)
	}
	return nil
}

// Get returns egg id owned by owner.
//
// Postcondition: Returns the egg, or an error wrapping storage.ErrNotFound.
func (r *EggRepository) Get(ctx context.Context, owner, id string) (creature.Egg, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, owner, parent1_species, parent2_species, genetics, incubation_steps, required_steps
		FROM eggs WHERE owner = $1 AND id = $2`, owner, id)
	egg, err := scanEgg(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return creature.Egg{}, fmt.Errorf("egg %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return creature.Egg{}, fmt.Errorf("loading egg %q: %w", id, err)
	}
	return egg, nil
}

// ListByOwner returns the unhatched eggs of owner, oldest first.
func (r *EggRepository) ListByOwner(ctx context.Context, owner string) ([]creature.Egg, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner, parent1_species, parent2_species, genetics, incubation_steps, required_steps
		FROM eggs WHERE owner = $1 ORDER BY created_at ASC, id ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("listing eggs: %w", err)
	}
	defer rows.Close()

	var out []creature.Egg
	for rows.Next() {
		egg, err := scanEgg(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning egg: %w", err)
		}
		out = append(out, egg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating eggs: %w", err)
	}
	return out, nil
}

func scanEgg(row pgx.Row) (creature.Egg, error) {
	var egg creature.Egg
	err := row.Scan(&egg.ID, &egg.Owner, &egg.Parent1Species, &egg.Parent2Species,
		&egg.Genetics, &egg.IncubationSteps, &egg.RequiredSteps)
	return egg, err
}
