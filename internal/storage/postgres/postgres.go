// Package postgres persists creatures, eggs and battle summaries in
// PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/critter/internal/config"
)

// Connect opens a pgx pool sized from cfg and verifies it with a ping.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected pool or a non-nil error; on error no
// connections are left open.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// Open migrates the database described by cfg to the latest schema and
// returns a Store over a fresh pool.
//
// Postcondition: On success the caller owns the Store and must Close it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	if err := MigrateUp(cfg.DSN()); err != nil {
		return nil, err
	}
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// Health checks that the database answers within timeout.
func (s *Store) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.db.Ping(ctx)
}

// Close releases the pool. The Store is unusable afterwards.
func (s *Store) Close() {
	s.db.Close()
}
