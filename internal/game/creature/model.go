// Package creature defines the creature data model shared by every engine
// component: stats, moves, owned creatures and eggs.
package creature

import (
	"errors"
	"fmt"
)

// TypeTag is an elemental type such as "fire" or "water".
type TypeTag string

const (
	TypeNormal   TypeTag = "normal"
	TypeFire     TypeTag = "fire"
	TypeWater    TypeTag = "water"
	TypeGrass    TypeTag = "grass"
	TypeElectric TypeTag = "electric"
)

// Stats holds a creature's combat stats.
//
// Invariant: all fields > 0 for a valid creature.
type Stats struct {
	HP      int `yaml:"hp"`
	Attack  int `yaml:"attack"`
	Defense int `yaml:"defense"`
	Speed   int `yaml:"speed"`
}

// Validate reports whether every stat is strictly positive.
func (s Stats) Validate() error {
	if s.HP <= 0 || s.Attack <= 0 || s.Defense <= 0 || s.Speed <= 0 {
		return fmt.Errorf("stats must all be > 0, got hp=%d attack=%d defense=%d speed=%d",
			s.HP, s.Attack, s.Defense, s.Speed)
	}
	return nil
}

// Move is an immutable attack looked up from a species move table.
type Move struct {
	Name  string  `yaml:"name"`
	Power int     `yaml:"power"`
	Type  TypeTag `yaml:"type"`
}

// Creature is an owned (or wild) creature's persistent state.
//
// Invariant: Level >= 1; Experience >= 0; 0 <= CurrentHP <= BaseStats.HP.
// EvolutionStage never decreases over the creature's lifetime.
type Creature struct {
	ID             string
	SpeciesID      int
	Name           string
	Level          int
	Experience     int
	BaseStats      Stats
	CurrentHP      int
	Types          []TypeTag
	EvolutionStage int
}

// ErrInvalidCreature is returned by Validate when an invariant is violated.
var ErrInvalidCreature = errors.New("invalid creature")

// Validate checks the creature invariants.
//
// Postcondition: Returns nil iff all invariants hold, otherwise an error
// wrapping ErrInvalidCreature.
func (c Creature) Validate() error {
	if c.SpeciesID <= 0 {
		return fmt.Errorf("%w: species id must be > 0, got %d", ErrInvalidCreature, c.SpeciesID)
	}
	if c.Level < 1 {
		return fmt.Errorf("%w: level must be >= 1, got %d", ErrInvalidCreature, c.Level)
	}
	if c.Experience < 0 {
		return fmt.Errorf("%w: experience must be >= 0, got %d", ErrInvalidCreature, c.Experience)
	}
	if err := c.BaseStats.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCreature, err)
	}
	if c.CurrentHP < 0 || c.CurrentHP > c.BaseStats.HP {
		return fmt.Errorf("%w: current hp %d outside [0, %d]", ErrInvalidCreature, c.CurrentHP, c.BaseStats.HP)
	}
	if c.EvolutionStage < 0 {
		return fmt.Errorf("%w: evolution stage must be >= 0, got %d", ErrInvalidCreature, c.EvolutionStage)
	}
	return nil
}

// MaxHP returns the creature's maximum hit points.
func (c Creature) MaxHP() int { return c.BaseStats.HP }

// HasType reports whether the creature carries tag.
func (c Creature) HasType(tag TypeTag) bool {
	for _, t := range c.Types {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy of c that shares no slices with it.
func (c Creature) Clone() Creature {
	out := c
	if c.Types != nil {
		out.Types = append([]TypeTag(nil), c.Types...)
	}
	return out
}

// ClampHP bounds hp to [0, maxHP].
//
// Postcondition: 0 <= result <= max(maxHP, 0).
func ClampHP(hp, maxHP int) int {
	if maxHP < 0 {
		maxHP = 0
	}
	switch {
	case hp < 0:
		return 0
	case hp > maxHP:
		return maxHP
	default:
		return hp
	}
}

// Egg is an incubating egg produced by breeding two creatures.
//
// Invariant: IncubationSteps only increases; the egg is hatch-ready iff
// IncubationSteps >= RequiredSteps.
type Egg struct {
	ID              string
	Owner           string
	Parent1Species  int
	Parent2Species  int
	Genetics        []byte
	IncubationSteps int
	RequiredSteps   int
	// Hatched marks an egg that has been consumed by hatching; sinks treat a
	// committed hatched egg as a removal.
	Hatched bool
}

// Clone returns a copy of e that shares no slices with it.
func (e Egg) Clone() Egg {
	out := e
	if e.Genetics != nil {
		out.Genetics = append([]byte(nil), e.Genetics...)
	}
	return out
}
