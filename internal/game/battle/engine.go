// Package battle runs multi-turn encounters between two teams.
//
// A Session is a value; Engine.Step takes a session and an action and
// returns the next session without touching the input. Turns strictly
// alternate: the acting side attacks, the attack is shown (PhaseAnimating),
// and after Continue the defending side acts. Speed does not order turns.
package battle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/critter/internal/game/capture"
	"github.com/cory-johannsen/critter/internal/game/combat"
	"github.com/cory-johannsen/critter/internal/game/creature"
	"github.com/cory-johannsen/critter/internal/game/dice"
	"github.com/cory-johannsen/critter/internal/game/evolution"
	"github.com/cory-johannsen/critter/internal/game/progression"
	"github.com/cory-johannsen/critter/internal/game/species"
)

// maxAutoSteps bounds Resolve and Autoplay. Every attack deals at least one
// point of damage, so real battles finish far below it.
const maxAutoSteps = 100_000

// Committer receives the summary of a terminal session.
type Committer interface {
	CommitBattle(ctx context.Context, sum Summary) error
}

// Engine applies actions to sessions. It holds only immutable tables and
// injected collaborators, so one Engine may serve many sessions; each
// Session must still have a single writer.
type Engine struct {
	catalog    *species.Catalog
	evolutions *evolution.Table
	src        dice.Source
	policy     progression.Policy
	opponent   OpponentPolicy
	newID      func() string
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLevelPolicy sets how experience grants cross level thresholds.
func WithLevelPolicy(p progression.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithOpponentPolicy sets the policy that picks moves for engine-driven sides.
func WithOpponentPolicy(p OpponentPolicy) Option {
	return func(e *Engine) {
		if p != nil {
			e.opponent = p
		}
	}
}

// WithIDGenerator replaces the UUID generator for sessions and captured creatures.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine creates an Engine.
//
// Precondition: catalog, src and logger must be non-nil; evolutions may be
// nil, which disables evolution offers.
// Postcondition: Returns a ready Engine using SingleLevel and FirstMovePolicy
// unless overridden.
func NewEngine(catalog *species.Catalog, evolutions *evolution.Table, src dice.Source, logger *zap.Logger, opts ...Option) *Engine {
	if catalog == nil {
		panic("battle.NewEngine: catalog must not be nil")
	}
	if src == nil {
		panic("battle.NewEngine: src must not be nil")
	}
	if logger == nil {
		panic("battle.NewEngine: logger must not be nil")
	}
	e := &Engine{
		catalog:    catalog,
		evolutions: evolutions,
		src:        src,
		policy:     progression.SingleLevel,
		opponent:   FirstMovePolicy{},
		newID:      uuid.NewString,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewSession starts an encounter between the player team and the opponent
// team. Wild marks a single wild opponent that may be captured.
//
// Precondition: each team has at least one creature with CurrentHP > 0.
// Postcondition: Returns a session in PhaseSelecting with the player acting
// on turn 1, or an error wrapping ErrEmptyTeam, creature.ErrInvalidCreature
// or species.ErrUnknownSpecies.
func (e *Engine) NewSession(player, opponent []creature.Creature, wild bool) (Session, error) {
	s := Session{
		ID:     e.newID(),
		Wild:   wild,
		Acting: SidePlayer,
		Turn:   1,
		Phase:  PhaseSelecting,
	}
	s.Seed, s.Seeded = dice.SeedOf(e.src)

	for side, team := range [2][]creature.Creature{player, opponent} {
		active := -1
		for i, c := range team {
			if err := c.Validate(); err != nil {
				return Session{}, fmt.Errorf("%s team slot %d: %w", Side(side), i, err)
			}
			moves, err := e.catalog.MovesFor(c.SpeciesID)
			if err != nil {
				return Session{}, fmt.Errorf("%s team slot %d: %w", Side(side), i, err)
			}
			p := Participant{Creature: c.Clone(), CurrentHP: c.CurrentHP, Moves: moves}
			if active < 0 && !p.Fainted() {
				active = i
			}
			s.Teams[side] = append(s.Teams[side], p)
		}
		if active < 0 {
			return Session{}, fmt.Errorf("%w: %s", ErrEmptyTeam, Side(side))
		}
		s.Active[side] = active
	}

	p, o := s.ActiveParticipant(SidePlayer), s.ActiveParticipant(SideOpponent)
	s.log(Event{Kind: EventStart, Side: SidePlayer, CreatureID: p.Creature.ID,
		Narrative: fmt.Sprintf("%s (Lv.%d) faces %s (Lv.%d).", p.Creature.Name, p.Creature.Level, o.Creature.Name, o.Creature.Level)})
	e.logger.Debug("battle session created",
		zap.String("session_id", s.ID),
		zap.Bool("wild", wild),
		zap.Uint64("seed", s.Seed),
	)
	return s, nil
}

// Step applies one action to s and returns the resulting session.
//
// Precondition: s was produced by this Engine.
// Postcondition: s is never modified. On error the input is returned
// unchanged together with an error wrapping one of ErrSessionTerminal,
// ErrActionRejected, ErrInvalidMove, ErrInvalidSwitchTarget or
// ErrCaptureNotAllowed.
func (e *Engine) Step(s Session, a Action) (Session, error) {
	if s.Phase.Terminal() {
		return s, fmt.Errorf("%w: session %s is %s", ErrSessionTerminal, s.ID, s.Phase)
	}
	switch s.Phase {
	case PhaseAnimating:
		if a.Kind != ActionContinue {
			return s, rejected(s, a)
		}
		return e.settle(s.clone()), nil
	case PhaseSwitching:
		if a.Kind != ActionSwitch || a.Side != s.SwitchingSide {
			return s, rejected(s, a)
		}
		return e.faintSwitch(s, a)
	}

	if a.Kind == ActionFlee {
		if a.Side != SidePlayer {
			return s, rejected(s, a)
		}
		out := s.clone()
		out.Phase = PhaseFled
		out.Pending = nil
		out.log(Event{Kind: EventFled, Side: SidePlayer, Narrative: "Got away safely."})
		return out, nil
	}
	if a.Side != s.Acting {
		return s, rejected(s, a)
	}
	switch a.Kind {
	case ActionAttack:
		return e.attack(s, a)
	case ActionSwitch:
		return e.voluntarySwitch(s, a)
	case ActionCapture:
		return e.capture(s, a)
	default:
		return s, rejected(s, a)
	}
}

func rejected(s Session, a Action) error {
	return fmt.Errorf("%w: %s by %s in phase %s", ErrActionRejected, a.Kind, a.Side, s.Phase)
}

// pickMove finds name in p's move set. An empty name, or the default move's
// name when the set does not contain it, selects combat.DefaultMove.
func pickMove(p Participant, name string) (creature.Move, error) {
	if name == "" {
		return combat.DefaultMove, nil
	}
	for _, m := range p.Moves {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	if strings.EqualFold(name, combat.DefaultMove.Name) {
		return combat.DefaultMove, nil
	}
	return creature.Move{}, fmt.Errorf("%w: %s does not know %q", ErrInvalidMove, p.Creature.Name, name)
}

func (e *Engine) attack(s Session, a Action) (Session, error) {
	atk := s.ActiveParticipant(a.Side)
	def := s.ActiveParticipant(a.Side.Opponent())
	move, err := pickMove(atk, a.Move)
	if err != nil {
		return s, err
	}
	res, err := combat.ResolveDamage(atk.Creature, def.Creature, move, e.src)
	if err != nil {
		return s, fmt.Errorf("%s attacking: %w", atk.Creature.Name, err)
	}

	out := s.clone()
	target := out.activeRef(a.Side.Opponent())
	target.CurrentHP = combat.ApplyDamage(target.CurrentHP, res.Damage, target.Creature.MaxHP())
	out.Pending = &Pending{Attacker: a.Side, Result: res}
	out.Phase = PhaseAnimating

	narrative := fmt.Sprintf("%s used %s! %s took %d damage.", atk.Creature.Name, res.Move.Name, def.Creature.Name, res.Damage)
	if res.Critical {
		narrative = fmt.Sprintf("%s used %s! A critical hit! %s took %d damage.", atk.Creature.Name, res.Move.Name, def.Creature.Name, res.Damage)
	}
	out.log(Event{
		Kind:       EventAttack,
		Side:       a.Side,
		CreatureID: atk.Creature.ID,
		Move:       res.Move.Name,
		Damage:     res.Damage,
		Critical:   res.Critical,
		Narrative:  narrative,
	})
	return out, nil
}

// settle resolves the attack shown in PhaseAnimating.
func (e *Engine) settle(out Session) Session {
	attacker := SidePlayer
	if out.Pending != nil {
		attacker = out.Pending.Attacker
	}
	out.Pending = nil
	defSide := attacker.Opponent()
	def := out.activeRef(defSide)
	if !def.Fainted() {
		out.handOff(defSide)
		return out
	}

	out.log(Event{Kind: EventFaint, Side: defSide, CreatureID: def.Creature.ID,
		Narrative: fmt.Sprintf("%s fainted!", def.Creature.Name)})
	e.reward(&out, attacker, def.Creature.Level)

	if _, ok := out.NextLiving(defSide); ok {
		out.Phase = PhaseSwitching
		out.SwitchingSide = defSide
		return out
	}
	if defSide == SideOpponent {
		out.Phase = PhaseVictory
		out.log(Event{Kind: EventVictory, Side: SidePlayer, Narrative: "Victory!"})
	} else {
		out.Phase = PhaseDefeat
		out.log(Event{Kind: EventDefeat, Side: SidePlayer, Narrative: "Every creature on your team fainted."})
	}
	return out
}

// reward grants experience for a knockout to side's active creature and
// records level-ups and evolution offers. Wild opponents gain nothing.
func (e *Engine) reward(out *Session, side Side, loserLevel int) {
	if out.Wild && side == SideOpponent {
		return
	}
	w := out.activeRef(side)
	amount := progression.ExperienceReward(loserLevel)
	from := w.Creature.Level
	res := progression.GrantExperience(w.Creature, amount, e.policy)
	w.Creature = res.Creature

	out.Gains = append(out.Gains, Gain{CreatureID: w.Creature.ID, Amount: amount})
	out.log(Event{Kind: EventExperience, Side: side, CreatureID: w.Creature.ID, Value: amount,
		Narrative: fmt.Sprintf("%s gained %d experience.", w.Creature.Name, amount)})
	if res.LeveledUp {
		out.LevelUps = append(out.LevelUps, LevelUp{CreatureID: w.Creature.ID, From: from, To: res.NewLevel})
		out.log(Event{Kind: EventLevelUp, Side: side, CreatureID: w.Creature.ID, Value: res.NewLevel,
			Narrative: fmt.Sprintf("%s grew to Lv.%d!", w.Creature.Name, res.NewLevel)})
	}
	if e.evolutions == nil {
		return
	}
	if rule, ok := evolution.Check(w.Creature, e.evolutions); ok {
		out.offer(Offer{CreatureID: w.Creature.ID, Rule: rule})
		out.log(Event{Kind: EventEvolutionOffer, Side: side, CreatureID: w.Creature.ID, Value: rule.ToSpeciesID,
			Narrative: fmt.Sprintf("%s can evolve into %s.", w.Creature.Name, rule.ToName)})
	}
}

// faintSwitch brings in a reserve after a faint. The side whose creature
// fainted acts next.
func (e *Engine) faintSwitch(s Session, a Action) (Session, error) {
	if err := s.validateSwitch(a.Side, a.Target); err != nil {
		return s, err
	}
	out := s.clone()
	out.Active[a.Side] = a.Target
	in := out.ActiveParticipant(a.Side)
	out.log(Event{Kind: EventSwitch, Side: a.Side, CreatureID: in.Creature.ID, Value: a.Target,
		Narrative: fmt.Sprintf("%s sent out %s.", a.Side, in.Creature.Name)})
	out.handOff(a.Side)
	return out, nil
}

// voluntarySwitch uses the acting side's action to change creatures.
func (e *Engine) voluntarySwitch(s Session, a Action) (Session, error) {
	if err := s.validateSwitch(a.Side, a.Target); err != nil {
		return s, err
	}
	out := s.clone()
	outgoing := out.ActiveParticipant(a.Side)
	out.Active[a.Side] = a.Target
	in := out.ActiveParticipant(a.Side)
	out.log(Event{Kind: EventSwitch, Side: a.Side, CreatureID: in.Creature.ID, Value: a.Target,
		Narrative: fmt.Sprintf("%s withdrew %s and sent out %s.", a.Side, outgoing.Creature.Name, in.Creature.Name)})
	out.handOff(a.Side.Opponent())
	return out, nil
}

func (e *Engine) capture(s Session, a Action) (Session, error) {
	if !s.Wild || a.Side != SidePlayer {
		return s, fmt.Errorf("%w: only the player may capture a wild opponent", ErrCaptureNotAllowed)
	}
	target := s.ActiveParticipant(SideOpponent)
	rate := capture.Rate(capture.HPFraction(target.CurrentHP, target.Creature.MaxHP()))

	out := s.clone()
	if !capture.Attempt(rate, e.src) {
		out.log(Event{Kind: EventCaptureFailed, Side: SidePlayer, CreatureID: target.Creature.ID,
			Narrative: fmt.Sprintf("%s broke free!", target.Creature.Name)})
		return out, nil
	}
	c := target.Creature.Clone()
	c.ID = e.newID()
	c.CurrentHP = creature.ClampHP(target.CurrentHP, c.MaxHP())
	out.Captured = &c
	out.Phase = PhaseCaptured
	out.log(Event{Kind: EventCaptured, Side: SidePlayer, CreatureID: c.ID,
		Narrative: fmt.Sprintf("Gotcha! %s was caught!", c.Name)})
	return out, nil
}

// Resolve applies a player action, then drives the session until the player
// has to act again or the session ends: attacks are continued, the opponent
// attacks using the opponent policy and switches in its next living creature
// after a faint.
//
// Postcondition: On success the returned session is terminal, in
// PhaseSelecting with the player acting, or in PhaseSwitching for the player.
func (e *Engine) Resolve(s Session, a Action) (Session, error) {
	out, err := e.Step(s, a)
	if err != nil {
		return s, err
	}
	return e.drive(out, false)
}

// Autoplay drives both sides with the opponent policy until the session ends.
func (e *Engine) Autoplay(s Session) (Session, error) {
	return e.drive(s, true)
}

func (e *Engine) drive(s Session, both bool) (Session, error) {
	for steps := 0; !s.Phase.Terminal(); steps++ {
		if steps >= maxAutoSteps {
			return s, fmt.Errorf("%w: session %s after %d steps", ErrStalled, s.ID, steps)
		}
		var a Action
		switch s.Phase {
		case PhaseAnimating:
			a = Continue()
		case PhaseSwitching:
			if s.SwitchingSide == SidePlayer && !both {
				return s, nil
			}
			idx, _ := s.NextLiving(s.SwitchingSide)
			a = Switch(s.SwitchingSide, idx)
		default:
			if s.Acting == SidePlayer && !both {
				return s, nil
			}
			a = Attack(s.Acting, e.chooseMove(s, s.Acting).Name)
		}
		next, err := e.Step(s, a)
		if err != nil {
			return s, err
		}
		s = next
	}
	return s, nil
}

// chooseMove asks the opponent policy for side's move, falling back to the
// first move when the policy fails or picks a move the creature lacks.
func (e *Engine) chooseMove(s Session, side Side) creature.Move {
	v := View{Turn: s.Turn, Self: s.ActiveParticipant(side), Target: s.ActiveParticipant(side.Opponent())}
	m, err := e.opponent.ChooseMove(v)
	if err == nil {
		if _, err = pickMove(v.Self, m.Name); err == nil {
			return m
		}
	}
	e.logger.Warn("opponent policy failed; using first move",
		zap.String("session_id", s.ID),
		zap.String("creature", v.Self.Creature.Name),
		zap.Error(err),
	)
	fallback, _ := FirstMovePolicy{}.ChooseMove(v)
	return fallback
}

// Commit sends the summary of a terminal session to sink and returns the
// session marked committed. A persistence failure is returned but the
// session stays committed: the simulated result is authoritative.
//
// Precondition: sink must be non-nil.
// Postcondition: Returns ErrNotTerminal or ErrAlreadyCommitted without
// calling sink when the session cannot be committed.
func (e *Engine) Commit(ctx context.Context, s Session, sink Committer) (Session, Summary, error) {
	if !s.Phase.Terminal() {
		return s, Summary{}, fmt.Errorf("%w: session %s is %s", ErrNotTerminal, s.ID, s.Phase)
	}
	if s.Committed {
		return s, Summary{}, fmt.Errorf("%w: session %s", ErrAlreadyCommitted, s.ID)
	}
	out := s.clone()
	out.Committed = true
	sum := out.Summary()
	if err := sink.CommitBattle(ctx, sum); err != nil {
		e.logger.Error("committing battle summary",
			zap.String("session_id", s.ID),
			zap.String("outcome", s.Phase.String()),
			zap.Error(err),
		)
		return out, sum, fmt.Errorf("committing battle %s: %w", s.ID, err)
	}
	e.logger.Info("battle committed",
		zap.String("session_id", s.ID),
		zap.String("outcome", s.Phase.String()),
		zap.Int("turns", s.Turn),
	)
	return out, sum, nil
}
