package battle

// Side identifies one of the two teams in a session.
type Side int

const (
	// SidePlayer is the side that submits actions through the caller.
	SidePlayer Side = iota
	// SideOpponent is the wild creature or trainer driven by an OpponentPolicy.
	SideOpponent
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SidePlayer {
		return SideOpponent
	}
	return SidePlayer
}

// String returns "player" or "opponent".
func (s Side) String() string {
	if s == SidePlayer {
		return "player"
	}
	return "opponent"
}

// Phase is the state of a Session.
type Phase int

const (
	PhaseSelecting Phase = iota // the acting side chooses an action
	PhaseAnimating              // an attack has landed; waiting for Continue
	PhaseSwitching              // the side whose creature fainted picks a reserve
	PhaseVictory                // opponent team fainted
	PhaseDefeat                 // player team fainted
	PhaseFled                   // player left the encounter
	PhaseCaptured               // the wild opponent was captured
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSelecting:
		return "selecting"
	case PhaseAnimating:
		return "animating"
	case PhaseSwitching:
		return "switching"
	case PhaseVictory:
		return "victory"
	case PhaseDefeat:
		return "defeat"
	case PhaseFled:
		return "fled"
	case PhaseCaptured:
		return "captured"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further action is accepted in p.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseVictory, PhaseDefeat, PhaseFled, PhaseCaptured:
		return true
	default:
		return false
	}
}
