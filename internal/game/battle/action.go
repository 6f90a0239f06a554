package battle

// ActionKind names what an Action does.
type ActionKind int

const (
	ActionUnknown  ActionKind = iota // zero value; always rejected
	ActionAttack                     // use a move against the opposing active creature
	ActionContinue                   // settle the attack shown in PhaseAnimating
	ActionSwitch                     // bring a reserve in
	ActionCapture                    // throw a capture device at a wild opponent
	ActionFlee                       // leave the encounter
)

// String returns the lower-case action name.
func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	case ActionContinue:
		return "continue"
	case ActionSwitch:
		return "switch"
	case ActionCapture:
		return "capture"
	case ActionFlee:
		return "flee"
	default:
		return "unknown"
	}
}

// Action is one submission to Engine.Step.
type Action struct {
	Kind ActionKind
	Side Side
	// Move names the move for ActionAttack. Empty selects the default move.
	Move string
	// Target is the team index for ActionSwitch.
	Target int
}

// Attack returns an attack action for side using the named move.
func Attack(side Side, move string) Action {
	return Action{Kind: ActionAttack, Side: side, Move: move}
}

// Continue returns the action that settles PhaseAnimating.
func Continue() Action { return Action{Kind: ActionContinue} }

// Switch returns a switch action bringing team index target in for side.
func Switch(side Side, target int) Action {
	return Action{Kind: ActionSwitch, Side: side, Target: target}
}

// Capture returns a capture attempt by side.
func Capture(side Side) Action { return Action{Kind: ActionCapture, Side: side} }

// Flee returns a flee action by side.
func Flee(side Side) Action { return Action{Kind: ActionFlee, Side: side} }
