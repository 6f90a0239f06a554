package species

// rarityWeight is the relative chance of each rarity tier being drawn for a
// wild encounter.
var rarityWeight = map[Rarity]float64{
	RarityCommon:    0.60,
	RarityUncommon:  0.25,
	RarityRare:      0.12,
	RarityLegendary: 0.03,
}

// rarityOrder fixes the order tiers are laid out on the roll.
var rarityOrder = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityLegendary}

// Source is the subset of dice.Source used by PickWild.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// PickWild chooses a species for a wild encounter. A rarity tier is drawn
// first, weighted over the tiers that hold at least one species, then a
// species is picked uniformly within it. A tier's chance does not depend on
// how many species it holds.
//
// Precondition: src must be non-nil.
// Postcondition: Returns false only when the catalog is empty.
func (c *Catalog) PickWild(src Source) (Species, bool) {
	tiers := make(map[Rarity][]int, len(rarityOrder))
	for _, id := range c.IDs() {
		r := c.byID[id].Rarity
		tiers[r] = append(tiers[r], id)
	}
	total := 0.0
	for _, r := range rarityOrder {
		if len(tiers[r]) > 0 {
			total += rarityWeight[r]
		}
	}
	if total == 0 {
		return Species{}, false
	}

	var ids []int
	roll := src.Float64() * total
	for _, r := range rarityOrder {
		if len(tiers[r]) == 0 {
			continue
		}
		ids = tiers[r]
		roll -= rarityWeight[r]
		if roll < 0 {
			break
		}
	}
	s, _ := c.Get(ids[src.Intn(len(ids))])
	return s, true
}
