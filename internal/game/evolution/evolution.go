// Package evolution decides when a creature may evolve and applies a
// confirmed evolution.
//
// Evolution is never automatic: Check reports an offer, and only a caller
// that has the owner's confirmation calls Apply. Declining leaves the
// creature unchanged, so the same offer is produced again later.
package evolution

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/critter/internal/game/creature"
)

// ErrNotEligible is returned by Apply when the rule does not match the
// creature's species or its level is below the rule's requirement.
var ErrNotEligible = errors.New("creature is not eligible for evolution")

// Stage is one evolved form in a chain.
type Stage struct {
	SpeciesID     int    `yaml:"species_id"`
	Name          string `yaml:"name"`
	RequiredLevel int    `yaml:"required_level"`
}

// Chain is an ordered evolution line starting at a base species.
type Chain struct {
	Base   int     `yaml:"base"`
	Stages []Stage `yaml:"stages"`
}

// Validate checks that the chain has a base and at least one well-formed stage.
func (c Chain) Validate() error {
	if c.Base <= 0 {
		return fmt.Errorf("evolution chain: base must be > 0, got %d", c.Base)
	}
	if len(c.Stages) == 0 {
		return fmt.Errorf("evolution chain %d: at least one stage is required", c.Base)
	}
	for i, s := range c.Stages {
		if s.SpeciesID <= 0 {
			return fmt.Errorf("evolution chain %d: stage[%d] species_id must be > 0", c.Base, i)
		}
		if s.Name == "" {
			return fmt.Errorf("evolution chain %d: stage[%d] name must not be empty", c.Base, i)
		}
		if s.RequiredLevel < 1 {
			return fmt.Errorf("evolution chain %d: stage[%d] required_level must be >= 1", c.Base, i)
		}
	}
	return nil
}

// Rule is the next evolution available to a species.
type Rule struct {
	FromSpeciesID int
	// FromStage is the chain position of FromSpeciesID (0 for the base form).
	FromStage     int
	ToSpeciesID   int
	ToName        string
	RequiredLevel int
}

// Table indexes evolution chains by species.
type Table struct {
	rules    map[int]Rule
	position map[int]int
}

// NewTable builds a Table from chains.
//
// Precondition: each species appears at most once across all chains.
// Postcondition: Returns an error on the first invalid chain or repeated species.
func NewTable(chains []Chain) (*Table, error) {
	t := &Table{
		rules:    make(map[int]Rule),
		position: make(map[int]int),
	}
	for _, ch := range chains {
		if err := ch.Validate(); err != nil {
			return nil, err
		}
		line := make([]int, 0, len(ch.Stages)+1)
		line = append(line, ch.Base)
		for _, s := range ch.Stages {
			line = append(line, s.SpeciesID)
		}
		for pos, id := range line {
			if _, dup := t.position[id]; dup {
				return nil, fmt.Errorf("evolution chain %d: species %d already appears in another chain", ch.Base, id)
			}
			t.position[id] = pos
		}
		for i, s := range ch.Stages {
			from := line[i]
			t.rules[from] = Rule{
				FromSpeciesID: from,
				FromStage:     i,
				ToSpeciesID:   s.SpeciesID,
				ToName:        s.Name,
				RequiredLevel: s.RequiredLevel,
			}
		}
	}
	return t, nil
}

// RuleFor returns the next evolution for speciesID, wherever it sits in its
// chain. The boolean is false for fully evolved or unknown species.
func (t *Table) RuleFor(speciesID int) (Rule, bool) {
	r, ok := t.rules[speciesID]
	return r, ok
}

// InferStage returns the evolution stage of a creature of speciesID whose
// stored stage is reported. Creatures minted directly as an evolved form
// may carry a stored stage of 0, so a zero report falls back to the chain
// position.
//
// Postcondition: Returns reported when reported > 0, else the chain
// position of speciesID (0 for base forms and unknown species).
func (t *Table) InferStage(speciesID, reported int) int {
	if reported > 0 {
		return reported
	}
	return t.position[speciesID]
}

// Len returns the number of evolution rules in the table.
func (t *Table) Len() int { return len(t.rules) }

// Check reports the evolution c may undergo now.
//
// Postcondition: ok is true iff the table has a rule for c.SpeciesID and
// c.Level >= rule.RequiredLevel.
func Check(c creature.Creature, t *Table) (Rule, bool) {
	r, ok := t.RuleFor(c.SpeciesID)
	if !ok || c.Level < r.RequiredLevel {
		return Rule{}, false
	}
	return r, true
}

// Apply evolves c according to a confirmed rule. Species and name change;
// stats are left alone since only levelling up grows them.
//
// Precondition: rule must come from Check for the same creature.
// Postcondition: The input is not modified. EvolutionStage strictly increases.
// Returns ErrNotEligible when the rule does not apply to c.
func Apply(c creature.Creature, rule Rule) (creature.Creature, error) {
	if c.SpeciesID != rule.FromSpeciesID {
		return creature.Creature{}, fmt.Errorf("%w: rule is for species %d, creature %q is species %d",
			ErrNotEligible, rule.FromSpeciesID, c.ID, c.SpeciesID)
	}
	if c.Level < rule.RequiredLevel {
		return creature.Creature{}, fmt.Errorf("%w: creature %q is level %d, needs %d",
			ErrNotEligible, c.ID, c.Level, rule.RequiredLevel)
	}
	out := c.Clone()
	out.SpeciesID = rule.ToSpeciesID
	out.Name = rule.ToName
	out.EvolutionStage = max(c.EvolutionStage, rule.FromStage) + 1
	return out, nil
}

// LoadFromBytes parses a YAML sequence of chains and builds a Table.
func LoadFromBytes(data []byte) (*Table, error) {
	var chains []Chain
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&chains); err != nil {
		return nil, fmt.Errorf("parsing evolution YAML: %w", err)
	}
	return NewTable(chains)
}

// LoadFile reads and parses the evolution table at path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading evolution table %q: %w", path, err)
	}
	t, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return t, nil
}
