// Package sqlite provides a single-file SQLite storage.Store for local play
// and the simulator.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store persists creatures, eggs and battle summaries in SQLite.
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

// Open opens the database at path and applies the embedded migrations.
//
// Precondition: path must be non-empty; ":memory:" is not supported because
// each pooled connection would see its own database.
// Postcondition: Returns a ready Store or a non-nil error.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	m, err := newMigrator(db)
	if err == nil {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	// m is not closed: closing it would close db.
	return &Store{db: db}, nil
}

// OpenMigrator opens the database at path without migrating it and returns
// a migrator over the embedded migrations. Closing the migrator closes the
// database.
func OpenMigrator(path string) (*migrate.Migrate, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	m, err := newMigrator(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func openDB(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CommitCreature upserts c. The stored evolution stage is never lowered.
func (s *Store) CommitCreature(ctx context.Context, owner string, c creature.Creature) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("commit creature %q: %w", c.ID, err)
	}
	now := toMillis(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO creatures (
		  id, owner, species_id, name, level, experience,
		  hp, attack, defense, speed, current_hp, types, evolution_stage,
		  created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		  owner           = excluded.owner,
		  species_id      = excluded.species_id,
		  name            = excluded.name,
		  level           = excluded.level,
		  experience      = excluded.experience,
		  hp              = excluded.hp,
		  attack          = excluded.attack,
		  defense         = excluded.defense,
		  speed           = excluded.speed,
		  current_hp      = excluded.current_hp,
		  types           = excluded.types,
		  evolution_stage = MAX(creatures.evolution_stage, excluded.evolution_stage),
		  updated_at      = excluded.updated_at`,
		c.ID, owner, c.SpeciesID, c.Name, c.Level, c.Experience,
		c.BaseStats.HP, c.BaseStats.Attack, c.BaseStats.Defense, c.BaseStats.Speed,
		c.CurrentHP, storage.TypesToString(c.Types), c.EvolutionStage,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("commit creature %q: %w", c.ID, err)
	}
	return nil
}

const creatureColumns = `id, species_id, name, level, experience,
	hp, attack, defense, speed, current_hp, types, evolution_stage`

type scanner interface {
	Scan(dest ...any) error
}

func scanCreature(row scanner) (creature.Creature, error) {
	var (
		c     creature.Creature
		types string
	)
	err := row.Scan(&c.ID, &c.SpeciesID, &c.Name, &c.Level, &c.Experience,
		&c.BaseStats.HP, &c.BaseStats.Attack, &c.BaseStats.Defense, &c.BaseStats.Speed,
		&c.CurrentHP, &types, &c.EvolutionStage)
	if err != nil {
		return creature.Creature{}, err
	}
	c.Types = storage.TypesFromString(types)
	return c, nil
}

// GetCreature returns creature id owned by owner.
func (s *Store) GetCreature(ctx context.Context, owner, id string) (creature.Creature, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+creatureColumns+` FROM creatures WHERE owner = ? AND id = ?`, owner, id)
	c, err := scanCreature(row)
	if errors.Is(err, sql.ErrNoRows) {
		return creature.Creature{}, fmt.Errorf("creature %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return creature.Creature{}, fmt.Errorf("get creature %q: %w", id, err)
	}
	return c, nil
}

// ListCreatures returns every creature owned by owner, oldest first.
func (s *Store) ListCreatures(ctx context.Context, owner string) ([]creature.Creature, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+creatureColumns+` FROM creatures WHERE owner = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list creatures: %w", err)
	}
	defer rows.Close()

	var out []creature.Creature
	for rows.Next() {
		c, err := scanCreature(rows)
		if err != nil {
			return nil, fmt.Errorf("scan creature: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate creatures: %w", err)
	}
	return out, nil
}

// CommitEgg upserts egg without lowering stored progress. A hatched egg is
// deleted.
func (s *Store) CommitEgg(ctx context.Context, egg creature.Egg) error {
	if egg.Hatched {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM eggs WHERE id = ?`, egg.ID); err != nil {
			return fmt.Errorf("delete egg %q: %w", egg.ID, err)
		}
		return nil
	}
	now := toMillis(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO eggs (
		  id, owner, parent1_species, parent2_species, genetics,
		  incubation_steps, required_steps, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		  incubation_steps = MAX(eggs.incubation_steps, excluded.incubation_steps),
		  required_steps   = excluded.required_steps,
		  updated_at       = excluded.updated_at`,
		egg.ID, egg.Owner, egg.Parent1Species, egg.Parent2Species, egg.Genetics,
		egg.IncubationSteps, egg.RequiredSteps, now, now,
	)
	if err != nil {
		return fmt.Errorf("commit egg %q: %w", egg.ID, err)
	}
	return nil
}

const eggColumns = `id, owner, parent1_species, parent2_species, genetics, incubation_steps, required_steps`

func scanEgg(row scanner) (creature.Egg, error) {
	var egg creature.Egg
	err := row.Scan(&egg.ID, &egg.Owner, &egg.Parent1Species, &egg.Parent2Species,
		&egg.Genetics, &egg.IncubationSteps, &egg.RequiredSteps)
	return egg, err
}

// GetEgg returns egg id owned by owner.
func (s *Store) GetEgg(ctx context.Context, owner, id string) (creature.Egg, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eggColumns+` FROM eggs WHERE owner = ? AND id = ?`, owner, id)
	egg, err := scanEgg(row)
	if errors.Is(err, sql.ErrNoRows) {
		return creature.Egg{}, fmt.Errorf("egg %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return creature.Egg{}, fmt.Errorf("get egg %q: %w", id, err)
	}
	return egg, nil
}

// ListEggs returns the unhatched eggs of owner, oldest first.
func (s *Store) ListEggs(ctx context.Context, owner string) ([]creature.Egg, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eggColumns+` FROM eggs WHERE owner = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list eggs: %w", err)
	}
	defer rows.Close()

	var out []creature.Egg
	for rows.Next() {
		egg, err := scanEgg(rows)
		if err != nil {
			return nil, fmt.Errorf("scan egg: %w", err)
		}
		out = append(out, egg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eggs: %w", err)
	}
	return out, nil
}

// CommitBattle records sum once; later commits for the session are ignored.
func (s *Store) CommitBattle(ctx context.Context, sum battle.Summary) error {
	doc, err := json.Marshal(storage.NewBattleRecord(sum))
	if err != nil {
		return fmt.Errorf("encode battle %q: %w", sum.SessionID, err)
	}
	var seed sql.NullInt64
	if sum.Seeded {
		seed = sql.NullInt64{Int64: int64(sum.Seed), Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO battles (session_id, outcome, turns, seed, wild, summary, committed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO NOTHING`,
		sum.SessionID, sum.Outcome.String(), sum.Turns, seed, sum.Wild, string(doc), toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("commit battle %q: %w", sum.SessionID, err)
	}
	return nil
}

// GetBattle returns the recorded summary of sessionID.
func (s *Store) GetBattle(ctx context.Context, sessionID string) (storage.BattleRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT summary FROM battles WHERE session_id = ?`, sessionID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.BattleRecord{}, fmt.Errorf("battle %q: %w", sessionID, storage.ErrNotFound)
	}
	if err != nil {
		return storage.BattleRecord{}, fmt.Errorf("get battle %q: %w", sessionID, err)
	}
	var rec storage.BattleRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return storage.BattleRecord{}, fmt.Errorf("decode battle %q: %w", sessionID, err)
	}
	return rec, nil
}
