package dice

import "sync"

// ScriptedSource replays a fixed list of uniform draws. It is used to pin
// random factors and critical-hit rolls in scenarios and replays.
//
// Float64 returns the scripted values in order and cycles when exhausted.
// Intn maps the next scripted value onto [0, n).
type ScriptedSource struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewScriptedSource returns a ScriptedSource over values.
//
// Precondition: len(values) >= 1; each value should be in [0, 1]. A value of
// exactly 1 is allowed so a random factor can be pinned at its maximum.
func NewScriptedSource(values ...float64) *ScriptedSource {
	if len(values) == 0 {
		panic("dice: NewScriptedSource requires at least one value")
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	return &ScriptedSource{values: cp}
}

// Float64 returns the next scripted value.
func (s *ScriptedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Intn maps the next scripted value onto [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (s *ScriptedSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Draws returns how many values have been consumed so far.
func (s *ScriptedSource) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
