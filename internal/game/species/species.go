// Package species provides the static species catalog: base stats, types and
// move pools keyed by species ID, loaded from YAML content files.
package species

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/critter/internal/game/creature"
)

// ErrUnknownSpecies is returned when a species ID is not in the catalog.
var ErrUnknownSpecies = errors.New("unknown species")

// Rarity classifies how often a species appears in the wild.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

// Species is one catalog entry.
type Species struct {
	ID        int                `yaml:"id"`
	Name      string             `yaml:"name"`
	Types     []creature.TypeTag `yaml:"types"`
	BaseStats creature.Stats     `yaml:"base_stats"`
	Moves     []creature.Move    `yaml:"moves"`
	Rarity    Rarity             `yaml:"rarity"`
}

// Validate checks that the species satisfies basic invariants.
//
// Postcondition: Returns nil iff ID > 0, Name is non-empty, at least one type
// is set, all base stats are > 0 and every move has a name and power >= 0.
func (s *Species) Validate() error {
	if s.ID <= 0 {
		return fmt.Errorf("species: id must be > 0, got %d", s.ID)
	}
	if s.Name == "" {
		return fmt.Errorf("species %d: name must not be empty", s.ID)
	}
	if len(s.Types) == 0 {
		return fmt.Errorf("species %d: at least one type is required", s.ID)
	}
	if err := s.BaseStats.Validate(); err != nil {
		return fmt.Errorf("species %d: %w", s.ID, err)
	}
	for i, m := range s.Moves {
		if m.Name == "" {
			return fmt.Errorf("species %d: move[%d] must have a name", s.ID, i)
		}
		if m.Power < 0 {
			return fmt.Errorf("species %d: move %q power must be >= 0, got %d", s.ID, m.Name, m.Power)
		}
	}
	switch s.Rarity {
	case "", RarityCommon, RarityUncommon, RarityRare, RarityLegendary:
	default:
		return fmt.Errorf("species %d: unknown rarity %q", s.ID, s.Rarity)
	}
	return nil
}

// Catalog is an immutable species table keyed by ID.
type Catalog struct {
	byID map[int]*Species
}

// NewCatalog builds a Catalog from entries.
//
// Precondition: every entry must pass Validate.
// Postcondition: Returns an error on the first invalid or duplicate entry.
func NewCatalog(entries []*Species) (*Catalog, error) {
	title := cases.Title(language.English)
	c := &Catalog{byID: make(map[int]*Species, len(entries))}
	for _, s := range entries {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("species %d: duplicate id", s.ID)
		}
		cp := *s
		cp.Name = title.String(strings.TrimSpace(s.Name))
		cp.Types = normalizeTypes(s.Types)
		cp.Moves = normalizeMoves(s.Moves)
		if cp.Rarity == "" {
			cp.Rarity = RarityCommon
		}
		c.byID[cp.ID] = &cp
	}
	return c, nil
}

func normalizeTypes(in []creature.TypeTag) []creature.TypeTag {
	out := make([]creature.TypeTag, len(in))
	for i, t := range in {
		out[i] = creature.TypeTag(strings.ToLower(strings.TrimSpace(string(t))))
	}
	return out
}

func normalizeMoves(in []creature.Move) []creature.Move {
	title := cases.Title(language.English)
	out := make([]creature.Move, len(in))
	for i, m := range in {
		out[i] = m
		out[i].Name = title.String(strings.TrimSpace(m.Name))
		if m.Type == "" {
			out[i].Type = creature.TypeNormal
		} else {
			out[i].Type = creature.TypeTag(strings.ToLower(string(m.Type)))
		}
	}
	return out
}

// Get returns the species with the given id.
//
// Postcondition: Returns a copy of the entry, or an error wrapping ErrUnknownSpecies.
func (c *Catalog) Get(id int) (Species, error) {
	s, ok := c.byID[id]
	if !ok {
		return Species{}, fmt.Errorf("%w: %d", ErrUnknownSpecies, id)
	}
	out := *s
	out.Types = append([]creature.TypeTag(nil), s.Types...)
	out.Moves = append([]creature.Move(nil), s.Moves...)
	return out, nil
}

// MovesFor returns the move pool of species id.
func (c *Catalog) MovesFor(id int) ([]creature.Move, error) {
	s, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	return s.Moves, nil
}

// BaseStatsFor returns the base stats of species id.
func (c *Catalog) BaseStatsFor(id int) (creature.Stats, error) {
	s, err := c.Get(id)
	if err != nil {
		return creature.Stats{}, err
	}
	return s.BaseStats, nil
}

// IDs returns every species ID in ascending order.
func (c *Catalog) IDs() []int {
	ids := make([]int, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of species in the catalog.
func (c *Catalog) Len() int { return len(c.byID) }

// Spawn instantiates a wild or hatched creature of species id at level with
// full HP. Stats are the species base stats scaled by one growth step per
// level above 1, the same rule a creature follows when it levels up.
//
// Precondition: level >= 1; id must be non-empty.
// Postcondition: Returns a creature passing Validate, or ErrUnknownSpecies.
func (c *Catalog) Spawn(id string, speciesID, level int) (creature.Creature, error) {
	s, err := c.Get(speciesID)
	if err != nil {
		return creature.Creature{}, err
	}
	if level < 1 {
		level = 1
	}
	stats := s.BaseStats
	for l := 1; l < level; l++ {
		stats = creature.GrowStats(stats)
	}
	return creature.Creature{
		ID:        id,
		SpeciesID: s.ID,
		Name:      s.Name,
		Level:     level,
		BaseStats: stats,
		CurrentHP: stats.HP,
		Types:     s.Types,
	}, nil
}

// LoadFromBytes parses a YAML document holding a list of species.
//
// Precondition: data must be a YAML sequence of species mappings.
// Postcondition: Returns the parsed (unvalidated) entries or a parse error.
func LoadFromBytes(data []byte) ([]*Species, error) {
	var entries []*Species
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("parsing species YAML: %w", err)
	}
	return entries, nil
}

// LoadDirectory reads every *.yaml file in dir and builds a Catalog.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a Catalog, or an error on the first read, parse or
// validation failure.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading species dir %q: %w", dir, err)
	}
	var all []*Species
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		parsed, err := LoadFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		all = append(all, parsed...)
	}
	return NewCatalog(all)
}
