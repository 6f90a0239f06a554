package creature

// GrowthPercent is the per-level-up stat growth, expressed in percent.
const GrowthPercent = 110

// EffectiveStats returns the stats used in combat. Stats are stored already
// scaled by prior level-ups, so this is the creature's BaseStats.
func EffectiveStats(c Creature) Stats {
	return c.BaseStats
}

// GrowStats scales every field by 1.10 and floors the result.
//
// Integer arithmetic keeps the result exact: floor(x * 110 / 100).
// Postcondition: each field of the result equals floor(field * 1.10).
func GrowStats(s Stats) Stats {
	return Stats{
		HP:      grow(s.HP),
		Attack:  grow(s.Attack),
		Defense: grow(s.Defense),
		Speed:   grow(s.Speed),
	}
}

func grow(v int) int {
	return v * GrowthPercent / 100
}
