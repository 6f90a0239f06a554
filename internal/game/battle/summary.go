package battle

import (
	"github.com/cory-johannsen/critter/internal/game/creature"
)

// Summary is what a terminal session hands to persistence.
type Summary struct {
	SessionID string
	Outcome   Phase
	Turns     int
	Seed      uint64
	Seeded    bool
	Wild      bool
	// Experience totals experience per creature, in the order first granted.
	Experience []Gain
	LevelUps   []LevelUp
	Offers     []Offer
	// Teams holds each side's creatures with their battle HP written back.
	// Both are empty when the player fled.
	Teams    [2][]creature.Creature
	Captured *creature.Creature
}

// Summary builds the summary of s. It may be called on a session in
// progress, in which case Outcome is the current phase.
func (s Session) Summary() Summary {
	sum := Summary{
		SessionID: s.ID,
		Outcome:   s.Phase,
		Turns:     s.Turn,
		Seed:      s.Seed,
		Seeded:    s.Seeded,
		Wild:      s.Wild,
		LevelUps:  append([]LevelUp(nil), s.LevelUps...),
		Offers:    append([]Offer(nil), s.Offers...),
	}

	index := make(map[string]int)
	for _, g := range s.Gains {
		if i, ok := index[g.CreatureID]; ok {
			sum.Experience[i].Amount += g.Amount
			continue
		}
		index[g.CreatureID] = len(sum.Experience)
		sum.Experience = append(sum.Experience, g)
	}

	if s.Phase != PhaseFled {
		for side := range s.Teams {
			for _, p := range s.Teams[side] {
				c := p.Creature.Clone()
				c.CurrentHP = creature.ClampHP(p.CurrentHP, c.MaxHP())
				sum.Teams[side] = append(sum.Teams[side], c)
			}
		}
	}
	if s.Captured != nil {
		c := s.Captured.Clone()
		sum.Captured = &c
	}
	return sum
}

// PlayerTeam returns the player's creatures as they should be persisted.
func (s Summary) PlayerTeam() []creature.Creature { return s.Teams[SidePlayer] }
