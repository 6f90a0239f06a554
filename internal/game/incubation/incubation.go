// Package incubation tracks egg progress toward hatching and hatches ready
// eggs into level 1 creatures.
package incubation

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/game/dice"
	"github.com/cory-johannsen/critter/internal/game/species"
)

const (
	// DefaultRequiredSteps is the number of steps a new egg needs to hatch.
	DefaultRequiredSteps = 10
	// DefaultStepsPerWin is the progress one battle victory gives every egg.
	DefaultStepsPerWin = 1
	// MaxIncubating is how many unhatched eggs one owner may hold.
	MaxIncubating = 3
	// GeneticsSize is the length in bytes of an egg's genetics.
	GeneticsSize = 8
	nonceSize    = 8
)

var (
	// ErrEggNotReady is returned by Hatch for an egg that has not finished
	// incubating or was already hatched.
	ErrEggNotReady = errors.New("egg not ready to hatch")
	// ErrInvalidParent is returned when a parent is not a valid creature or
	// the chosen species is not one of the egg's parents.
	ErrInvalidParent = errors.New("invalid parent")
)

// Advance adds one step of progress to egg.
func Advance(egg creature.Egg) creature.Egg {
	return AdvanceBy(egg, 1)
}

// AdvanceBy adds steps of progress to egg, capped at RequiredSteps.
//
// Postcondition: The input is not modified. IncubationSteps never decreases
// and never passes RequiredSteps through this call; hatched eggs and
// non-positive steps leave the egg unchanged.
func AdvanceBy(egg creature.Egg, steps int) creature.Egg {
	out := egg.Clone()
	if steps <= 0 || egg.Hatched || out.IncubationSteps >= out.RequiredSteps {
		return out
	}
	out.IncubationSteps = min(out.IncubationSteps+steps, out.RequiredSteps)
	return out
}

// IsReady reports whether egg can hatch.
func IsReady(egg creature.Egg) bool {
	return !egg.Hatched && egg.IncubationSteps >= egg.RequiredSteps
}

// NewEgg breeds parent1 and parent2 into an unhatched egg owned by owner.
// Genetics are the blake2b digest of both parent IDs and a random nonce.
//
// Precondition: src and newID must be non-nil.
// Postcondition: Returns an egg with zero progress and GeneticsSize bytes of
// genetics, or an error wrapping ErrInvalidParent. A non-positive
// requiredSteps is replaced by DefaultRequiredSteps.
func NewEgg(owner string, parent1, parent2 creature.Creature, requiredSteps int, src dice.Source, newID func() string) (creature.Egg, error) {
	for _, p := range []creature.Creature{parent1, parent2} {
		if p.ID == "" || p.SpeciesID <= 0 {
			return creature.Egg{}, fmt.Errorf("%w: creature %q of species %d", ErrInvalidParent, p.ID, p.SpeciesID)
		}
	}
	if parent1.ID == parent2.ID {
		return creature.Egg{}, fmt.Errorf("%w: creature %q cannot breed with itself", ErrInvalidParent, parent1.ID)
	}
	if requiredSteps <= 0 {
		requiredSteps = DefaultRequiredSteps
	}

	h, err := blake2b.New(GeneticsSize, nil)
	if err != nil {
		return creature.Egg{}, fmt.Errorf("creating genetics hash: %w", err)
	}
	h.Write([]byte(parent1.ID))
	h.Write([]byte{0})
	h.Write([]byte(parent2.ID))
	h.Write(dice.Bytes(src, nonceSize))

	return creature.Egg{
		ID:             newID(),
		Owner:          owner,
		Parent1Species: parent1.SpeciesID,
		Parent2Species: parent2.SpeciesID,
		Genetics:       h.Sum(nil),
		RequiredSteps:  requiredSteps,
	}, nil
}

// ChooseParent picks the offspring species uniformly between the parents.
func ChooseParent(egg creature.Egg, src dice.Source) int {
	if src.Intn(2) == 0 {
		return egg.Parent1Species
	}
	return egg.Parent2Species
}

// Hatch turns a ready egg into a level 1 creature of speciesID, taking its
// stats, types and name from catalog. The returned egg is marked hatched.
//
// Precondition: catalog and newID must be non-nil.
// Postcondition: Returns ErrEggNotReady for an unready egg, ErrInvalidParent
// when speciesID is not a parent species, or species.ErrUnknownSpecies.
func Hatch(egg creature.Egg, speciesID int, catalog *species.Catalog, newID func() string) (creature.Creature, creature.Egg, error) {
	if !IsReady(egg) {
		return creature.Creature{}, egg, fmt.Errorf("%w: egg %q has %d/%d steps (hatched=%t)",
			ErrEggNotReady, egg.ID, egg.IncubationSteps, egg.RequiredSteps, egg.Hatched)
	}
	if speciesID != egg.Parent1Species && speciesID != egg.Parent2Species {
		return creature.Creature{}, egg, fmt.Errorf("%w: species %d is not a parent of egg %q", ErrInvalidParent, speciesID, egg.ID)
	}
	c, err := catalog.Spawn(newID(), speciesID, 1)
	if err != nil {
		return creature.Creature{}, egg, fmt.Errorf("hatching egg %q: %w", egg.ID, err)
	}
	out := egg.Clone()
	out.Hatched = true
	return c, out, nil
}
