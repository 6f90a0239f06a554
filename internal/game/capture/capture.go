// Package capture decides whether an attempt to capture a wild creature
// succeeds.
package capture

// Rate bounds: 30% at full health rising linearly to 90% at zero health.
const (
	BaseRate    = 0.30
	MaxBonus    = 0.60
	MaxRate     = BaseRate + MaxBonus
	fullHealth  = 1.0
	emptyHealth = 0.0
)

// Source is the subset of dice.Source used by Attempt.
type Source interface {
	Float64() float64
}

// Rate returns the capture probability for a target at hpFraction of its
// maximum HP.
//
// Precondition: none; hpFraction is clamped into [0, 1].
// Postcondition: Returns a value in [BaseRate, MaxRate] that is
// non-increasing in hpFraction.
func Rate(hpFraction float64) float64 {
	if hpFraction != hpFraction || hpFraction > fullHealth {
		hpFraction = fullHealth
	}
	if hpFraction < emptyHealth {
		hpFraction = emptyHealth
	}
	return BaseRate + (1-hpFraction)*MaxBonus
}

// HPFraction returns currentHP/maxHP, or 1 when maxHP is not positive.
func HPFraction(currentHP, maxHP int) float64 {
	if maxHP <= 0 {
		return fullHealth
	}
	return float64(currentHP) / float64(maxHP)
}

// RateAtFullHealth is the rate for a target outside an active battle.
func RateAtFullHealth() float64 {
	return Rate(fullHealth)
}

// Attempt draws one uniform value and reports whether it falls under rate.
//
// Precondition: src must be non-nil.
func Attempt(rate float64, src Source) bool {
	return src.Float64() < rate
}
