// Package dice provides the randomness abstraction used by the battle and
// progression engine. Every random decision in the engine draws from a
// Source so tests and replays can inject a deterministic generator.
package dice

// Source is the randomness provider for the engine.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Float64 returns a uniformly distributed value in [0, 1).
	Float64() float64
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Seeded is implemented by sources that can report the seed they were
// created from, so a finished encounter can be replayed.
type Seeded interface {
	Seed() uint64
}

// SeedOf returns the seed of src when it exposes one.
//
// Postcondition: Returns (seed, true) iff src implements Seeded.
func SeedOf(src Source) (uint64, bool) {
	if l, ok := src.(*LoggedSource); ok {
		return SeedOf(l.src)
	}
	s, ok := src.(Seeded)
	if !ok {
		return 0, false
	}
	return s.Seed(), true
}

// Bytes fills a new slice of length n with random bytes drawn from src.
//
// Precondition: n >= 0; src must be non-nil.
func Bytes(src Source, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(src.Intn(256))
	}
	return out
}
