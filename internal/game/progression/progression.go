// Package progression accumulates experience and levels creatures up.
package progression

import (
	"fmt"

	"github.com/cory-johannsen/critter/internal/game/creature"
)

// MaxLevel is the highest level a creature can reach.
const MaxLevel = 100

// rewardPerLevel and rewardNumerator/rewardDenominator give
// floor(loserLevel * 50 * 1.5).
const (
	rewardPerLevel    = 50
	rewardNumerator   = 3
	rewardDenominator = 2
)

// Policy decides how many thresholds one experience grant may cross.
type Policy int

const (
	// SingleLevel evaluates at most one level-up per grant.
	SingleLevel Policy = iota
	// Rollover keeps levelling up until the experience no longer meets the
	// next requirement.
	Rollover
)

// String returns the configuration name of p.
func (p Policy) String() string {
	switch p {
	case SingleLevel:
		return "single"
	case Rollover:
		return "rollover"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts a configuration name into a Policy.
//
// Postcondition: Returns SingleLevel for "" or "single".
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "single":
		return SingleLevel, nil
	case "rollover":
		return Rollover, nil
	default:
		return SingleLevel, fmt.Errorf("unknown level policy %q (want single or rollover)", name)
	}
}

// ExperienceToNextLevel returns the total experience needed to reach
// level+1: (level+1)^3.
func ExperienceToNextLevel(level int) int {
	n := level + 1
	return n * n * n
}

// ExperienceReward returns the experience granted for defeating a creature
// of loserLevel.
func ExperienceReward(loserLevel int) int {
	if loserLevel < 1 {
		loserLevel = 1
	}
	return loserLevel * rewardPerLevel * rewardNumerator / rewardDenominator
}

// Result reports the outcome of one experience grant.
type Result struct {
	Creature     creature.Creature
	LeveledUp    bool
	NewLevel     int
	LevelsGained int
}

// GrantExperience adds amount experience to c and applies level-ups
// according to policy. Each level-up grows every stat by 10%; CurrentHP is
// left as it was.
//
// Precondition: amount >= 0; c.Level >= 1.
// Postcondition: The input creature is not modified. Result.NewLevel ==
// Result.Creature.Level and never exceeds MaxLevel.
func GrantExperience(c creature.Creature, amount int, policy Policy) Result {
	out := c.Clone()
	if amount > 0 {
		out.Experience += amount
	}

	gained := 0
	for out.Level < MaxLevel && out.Experience >= ExperienceToNextLevel(out.Level) {
		out.Level++
		out.BaseStats = creature.GrowStats(out.BaseStats)
		gained++
		if policy != Rollover {
			break
		}
	}

	return Result{
		Creature:     out,
		LeveledUp:    gained > 0,
		NewLevel:     out.Level,
		LevelsGained: gained,
	}
}
