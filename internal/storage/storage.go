// Package storage defines where the engine's results are persisted. The
// engine itself never persists anything; callers hand committed creatures,
// eggs and battle summaries to a Sink.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/cory-johannsen/critter/internal/game/battle"
	"github.com/cory-johannsen/critter/internal/game/creature"
)

// ErrNotFound is returned when a creature or egg lookup yields no result.
var ErrNotFound = errors.New("not found")

// Sink receives committed results. Implementations must be safe for
// concurrent use.
type Sink interface {
	// CommitCreature upserts c as owned by owner. A stored evolution stage is
	// never lowered.
	CommitCreature(ctx context.Context, owner string, c creature.Creature) error
	// CommitEgg upserts egg; a hatched egg is removed.
	CommitEgg(ctx context.Context, egg creature.Egg) error
	// CommitBattle records a battle summary once per session.
	CommitBattle(ctx context.Context, sum battle.Summary) error
}

// EggLister lists the unhatched eggs an owner holds.
type EggLister interface {
	ListEggs(ctx context.Context, owner string) ([]creature.Egg, error)
}

// Store is a Sink that can also read back what it stored.
type Store interface {
	Sink
	EggLister
	// GetCreature returns creature id owned by owner, or ErrNotFound.
	GetCreature(ctx context.Context, owner, id string) (creature.Creature, error)
	// ListCreatures returns every creature owned by owner.
	ListCreatures(ctx context.Context, owner string) ([]creature.Creature, error)
	// GetEgg returns egg id owned by owner, or ErrNotFound.
	GetEgg(ctx context.Context, owner, id string) (creature.Egg, error)
}

// TypesToString joins type tags for storage in a text column.
func TypesToString(types []creature.TypeTag) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// TypesFromString reverses TypesToString.
func TypesFromString(s string) []creature.TypeTag {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]creature.TypeTag, len(parts))
	for i, p := range parts {
		out[i] = creature.TypeTag(p)
	}
	return out
}

// BattleRecord is the persisted document form of a battle summary.
type BattleRecord struct {
	SessionID  string          `json:"session_id"`
	Outcome    string          `json:"outcome"`
	Turns      int             `json:"turns"`
	Seed       uint64          `json:"seed,omitempty"`
	Seeded     bool            `json:"seeded"`
	Wild       bool            `json:"wild"`
	Experience map[string]int  `json:"experience,omitempty"`
	LevelUps   []LevelUpRecord `json:"level_ups,omitempty"`
	Offers     []OfferRecord   `json:"evolution_offers,omitempty"`
	CapturedID string          `json:"captured_id,omitempty"`
}

// LevelUpRecord is one level change in a BattleRecord.
type LevelUpRecord struct {
	CreatureID string `json:"creature_id"`
	From       int    `json:"from"`
	To         int    `json:"to"`
}

// OfferRecord is one evolution offer in a BattleRecord.
type OfferRecord struct {
	CreatureID  string `json:"creature_id"`
	ToSpeciesID int    `json:"to_species_id"`
	ToName      string `json:"to_name"`
}

// NewBattleRecord converts a summary into its persisted form.
func NewBattleRecord(sum battle.Summary) BattleRecord {
	rec := BattleRecord{
		SessionID: sum.SessionID,
		Outcome:   sum.Outcome.String(),
		Turns:     sum.Turns,
		Seed:      sum.Seed,
		Seeded:    sum.Seeded,
		Wild:      sum.Wild,
	}
	if len(sum.Experience) > 0 {
		rec.Experience = make(map[string]int, len(sum.Experience))
		for _, g := range sum.Experience {
			rec.Experience[g.CreatureID] += g.Amount
		}
	}
	for _, l := range sum.LevelUps {
		rec.LevelUps = append(rec.LevelUps, LevelUpRecord{CreatureID: l.CreatureID, From: l.From, To: l.To})
	}
	for _, o := range sum.Offers {
		rec.Offers = append(rec.Offers, OfferRecord{CreatureID: o.CreatureID, ToSpeciesID: o.Rule.ToSpeciesID, ToName: o.Rule.ToName})
	}
	if sum.Captured != nil {
		rec.CapturedID = sum.Captured.ID
	}
	return rec
}
