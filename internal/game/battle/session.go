package battle

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/critter/internal/game/combat"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/game/evolution"
)

var (
	// ErrInvalidMove is returned when an attack names a move outside the
	// attacker's move set. It wraps combat.ErrInvalidMove.
	ErrInvalidMove = fmt.Errorf("move not in move set: %w", combat.ErrInvalidMove)
	// ErrInvalidSwitchTarget is returned when a switch targets a fainted,
	// already active or out-of-range team slot.
	ErrInvalidSwitchTarget = errors.New("invalid switch target")
	// ErrSessionTerminal is returned for any action after the session ended.
	ErrSessionTerminal = errors.New("session already terminal")
	// ErrActionRejected is returned for an action the current phase does not
	// accept or that is submitted by a side that is not acting.
	ErrActionRejected = errors.New("action rejected")
	// ErrCaptureNotAllowed is returned when capturing outside a wild encounter.
	ErrCaptureNotAllowed = errors.New("capture not allowed")
	// ErrNotTerminal is returned by Commit for a session still in progress.
	ErrNotTerminal = errors.New("session not terminal")
	// ErrAlreadyCommitted is returned by Commit for a session committed before.
	ErrAlreadyCommitted = errors.New("session already committed")
	// ErrEmptyTeam is returned when a team has no creature able to battle.
	ErrEmptyTeam = errors.New("team has no creature able to battle")
	// ErrStalled is returned when automatic play exceeds its step limit.
	ErrStalled = errors.New("battle did not finish")
)

// Participant is a creature taking part in a battle. CurrentHP is scoped to
// the battle and written back to the creature only on commit.
type Participant struct {
	Creature  creature.Creature
	CurrentHP int
	Moves     []creature.Move
}

// Fainted reports whether the participant has no HP left.
func (p Participant) Fainted() bool { return p.CurrentHP <= 0 }

func (p Participant) clone() Participant {
	out := p
	out.Creature = p.Creature.Clone()
	out.Moves = append([]creature.Move(nil), p.Moves...)
	return out
}

// EventKind classifies log entries.
type EventKind int

const (
	EventStart EventKind = iota
	EventAttack
	EventFaint
	EventExperience
	EventLevelUp
	EventEvolutionOffer
	EventSwitch
	EventCaptureFailed
	EventCaptured
	EventFled
	EventVictory
	EventDefeat
)

// Event is one entry of a session's battle log.
type Event struct {
	Turn       int
	Kind       EventKind
	Side       Side
	CreatureID string
	Move       string
	Damage     int
	Critical   bool
	// Value carries the experience amount, new level or target team index.
	Value     int
	Narrative string
}

// Gain records experience granted to one creature.
type Gain struct {
	CreatureID string
	Amount     int
}

// LevelUp records a level change during the battle.
type LevelUp struct {
	CreatureID string
	From       int
	To         int
}

// Offer is an evolution the owner may confirm after the battle.
type Offer struct {
	CreatureID string
	Rule       evolution.Rule
}

// Pending is the attack shown while the session is in PhaseAnimating.
type Pending struct {
	Attacker Side
	Result   combat.DamageResult
}

// Session is the value-typed state of one encounter. Engine methods never
// modify a Session passed to them; they return a new one.
type Session struct {
	ID    string
	Wild  bool
	Teams [2][]Participant
	// Active holds the team index of each side's creature on the field.
	Active        [2]int
	Acting        Side
	Turn          int
	Phase         Phase
	SwitchingSide Side
	Pending       *Pending
	Log           []Event
	Gains         []Gain
	LevelUps      []LevelUp
	Offers        []Offer
	Captured      *creature.Creature
	Seed          uint64
	Seeded        bool
	Committed     bool
}

// ActiveParticipant returns the creature side has on the field.
func (s Session) ActiveParticipant(side Side) Participant {
	return s.Teams[side][s.Active[side]]
}

func (s *Session) activeRef(side Side) *Participant {
	return &s.Teams[side][s.Active[side]]
}

// NextLiving returns the first team index of side after the active one,
// wrapping around to the front of the team, whose creature has not fainted.
func (s Session) NextLiving(side Side) (int, bool) {
	team := s.Teams[side]
	for off := 1; off < len(team); off++ {
		i := (s.Active[side] + off) % len(team)
		if !team[i].Fainted() {
			return i, true
		}
	}
	return 0, false
}

func (s Session) clone() Session {
	out := s
	for side := range s.Teams {
		out.Teams[side] = make([]Participant, len(s.Teams[side]))
		for i, p := range s.Teams[side] {
			out.Teams[side][i] = p.clone()
		}
	}
	out.Log = append([]Event(nil), s.Log...)
	out.Gains = append([]Gain(nil), s.Gains...)
	out.LevelUps = append([]LevelUp(nil), s.LevelUps...)
	out.Offers = append([]Offer(nil), s.Offers...)
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	if s.Captured != nil {
		c := s.Captured.Clone()
		out.Captured = &c
	}
	return out
}

func (s *Session) log(e Event) {
	e.Turn = s.Turn
	s.Log = append(s.Log, e)
}

// handOff gives the next action to side.
func (s *Session) handOff(side Side) {
	s.Acting = side
	s.Turn++
	s.Phase = PhaseSelecting
}

func (s *Session) offer(o Offer) {
	for i := range s.Offers {
		if s.Offers[i].CreatureID == o.CreatureID {
			s.Offers[i] = o
			return
		}
	}
	s.Offers = append(s.Offers, o)
}

func (s Session) validateSwitch(side Side, target int) error {
	team := s.Teams[side]
	switch {
	case target < 0 || target >= len(team):
		return fmt.Errorf("%w: index %d out of range [0, %d)", ErrInvalidSwitchTarget, target, len(team))
	case target == s.Active[side]:
		return fmt.Errorf("%w: %s is already active", ErrInvalidSwitchTarget, team[target].Creature.Name)
	case team[target].Fainted():
		return fmt.Errorf("%w: %s has fainted", ErrInvalidSwitchTarget, team[target].Creature.Name)
	}
	return nil
}
