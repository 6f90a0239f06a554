package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/storage"
)

// BattleRepository records battle summaries.
type BattleRepository struct {
	db *pgxpool.Pool
}

// NewBattleRepository creates a BattleRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBattleRepository(db *pgxpool.Pool) *BattleRepository {
	return &BattleRepository{db: db}
}

// Record stores sum. A second record for the same session is ignored.
func (r *BattleRepository) Record(ctx context.Context, sum battle.Summary) error {
	var seed *int64
	if sum.Seeded {
		s := int64(sum.Seed)
		seed = &s
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO battles (session_id, outcome, turns, seed, wild, summary)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (session_id) DO NOTHING`,
		sum.SessionID, sum.Outcome.String(), sum.Turns, seed, sum.Wild, storage.NewBattleRecord(sum),
	)
	if err != nil {
		return fmt.Errorf("recording battle %q: %w", sum.SessionID, err)
	}
	return nil
}

// Get returns the recorded summary of sessionID.
//
// Postcondition: Returns the record, or an error wrapping storage.ErrNotFound.
func (r *BattleRepository) Get(ctx context.Context, sessionID string) (storage.BattleRecord, error) {
	var rec storage.BattleRecord
	err := r.db.QueryRow(ctx, `SELECT summary FROM battles WHERE session_id = $1`, sessionID).Scan(&rec)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.BattleRecord{}, fmt.Errorf("battle %q: %w", sessionID, storage.ErrNotFound)
	}
	if err != nil {
		return storage.BattleRecord{}, fmt.Errorf("loading battle %q: %w", sessionID, err)
	}
	return rec, nil
}
