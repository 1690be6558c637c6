package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/pefman/warband-tracker/internal/engine"
	"github.com/pefman/warband-tracker/internal/models"
)

// Session is one live battle. It is not safe for concurrent use; callers that
// share a session across goroutines must serialise access themselves.
type Session struct {
	round    int
	active   int
	warbands []ActiveWarband
	events   []Event
	started  time.Time

	dice   *engine.Dice
	strict bool
	now    func() time.Time
	byID   map[int64]FighterRef
}

// Option configures a session at start.
type Option func(*Session)

// WithDice sets the dice used for pools, ability dice and strikes.
func WithDice(d *engine.Dice) Option {
	return func(s *Session) { s.dice = d }
}

// WithStrictAbilities rejects ability dice for abilities the fighter doesn't have.
func WithStrictAbilities() Option {
	return func(s *Session) { s.strict = true }
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Start snapshots the selected rosters into a new session at round 1, first warband to act.
// Warbands with no fighters are allowed.
func Start(rosters []models.Roster, opts ...Option) (*Session, error) {
	if len(rosters) == 0 {
		return nil, ErrNoWarbands
	}
	seen := map[int64]bool{}
	for _, r := range rosters {
		id := r.Warband.ID
		if id == 0 {
			continue
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %q (id %d)", ErrDuplicateWarband, r.Warband.Name, id)
		}
		seen[id] = true
	}

	s := &Session{round: 1, now: time.Now, byID: map[int64]FighterRef{}}
	for _, o := range opts {
		o(s)
	}
	if s.dice == nil {
		s.dice = engine.NewRandomDice()
	}
	s.started = s.now()

	s.warbands = make([]ActiveWarband, 0, len(rosters))
	for wi, r := range rosters {
		aw := ActiveWarband{
			Template: r.Warband,
			Fighters: make([]ActiveFighter, 0, len(r.Fighters)),
			DicePool: engine.Pool{Singles: []int{}, Doubles: []int{}, Triples: []int{}, Quads: []int{}},
		}
		for fi, f := range r.Fighters {
			// negative wounds from a provider clamp to 0
			f.Wounds = max(0, f.Wounds)
			aw.Fighters = append(aw.Fighters, ActiveFighter{
				Template:      f,
				CurrentWounds: f.Wounds,
				StatusEffects: []string{},
				AbilityDice:   map[string]AbilityDie{},
			})
			if _, dup := s.byID[f.ID]; f.ID != 0 && !dup {
				s.byID[f.ID] = FighterRef{Warband: wi, Fighter: fi}
			}
		}
		s.warbands = append(s.warbands, aw)
	}

	names := make([]string, 0, len(s.warbands))
	for _, w := range s.warbands {
		names = append(names, w.Template.Name)
	}
	s.log(EventStart, fmt.Sprintf("Battle begins: %s", strings.Join(names, " vs ")))
	return s, nil
}

// BattleRound is the current round, starting at 1.
func (s *Session) BattleRound() int { return s.round }

// ActiveWarbandIndex is the index of the warband whose turn it is.
func (s *Session) ActiveWarbandIndex() int { return s.active }

// NumWarbands is the number of sides in the battle.
func (s *Session) NumWarbands() int { return len(s.warbands) }

// StartedAt is when Start was called.
func (s *Session) StartedAt() time.Time { return s.started }

// Warband returns a copy of the warband at index w.
func (s *Session) Warband(w int) (ActiveWarband, error) {
	aw, err := s.warband(w)
	if err != nil {
		return ActiveWarband{}, err
	}
	return aw.clone(), nil
}

// Fighter returns a copy of the addressed fighter.
func (s *Session) Fighter(ref FighterRef) (ActiveFighter, error) {
	f, err := s.fighter(ref)
	if err != nil {
		return ActiveFighter{}, err
	}
	return f.clone(), nil
}

// Locate resolves a fighter template ID to its position in the game.
func (s *Session) Locate(fighterID int64) (FighterRef, error) {
	ref, ok := s.byID[fighterID]
	if !ok {
		return FighterRef{}, fmt.Errorf("%w: id %d", ErrFighterNotFound, fighterID)
	}
	return ref, nil
}

// Snapshot returns a deep copy of the whole session.
func (s *Session) Snapshot() State {
	st := State{
		BattleRound:        s.round,
		ActiveWarbandIndex: s.active,
		ActiveWarbands:     make([]ActiveWarband, len(s.warbands)),
		Events:             append([]Event{}, s.events...),
		StartedAt:          s.started,
	}
	for i, w := range s.warbands {
		st.ActiveWarbands[i] = w.clone()
	}
	return st
}

// Events returns the battle log so far.
func (s *Session) Events() []Event { return append([]Event{}, s.events...) }

// RollDice rolls a fresh pool for warband w, replacing whatever it held. Turn state is untouched.
func (s *Session) RollDice(w int) (engine.Pool, error) {
	aw, err := s.warband(w)
	if err != nil {
		return engine.Pool{}, err
	}
	pool, rolls := s.dice.RollPool()
	aw.DicePool = pool
	s.logFor(w, EventRoll, fmt.Sprintf("%s rolls %v -> singles %v, doubles %v, triples %v, quads %v",
		aw.Template.Name, rolls, pool.Singles, pool.Doubles, pool.Triples, pool.Quads))
	return pool.Clone(), nil
}

// EndTurn passes play to the next warband. When every warband has had its turn the
// battle round advances, activations reset and ability dice clear. Wounds, status
// effects, treasure and dice pools carry over. Reports whether a new round began.
func (s *Session) EndTurn() bool {
	prev := s.active
	next := (s.active + 1) % len(s.warbands)
	s.active = next
	s.logFor(prev, EventTurn, fmt.Sprintf("%s ends their turn", s.warbands[prev].Template.Name))
	if next != 0 {
		return false
	}
	s.round++
	for wi := range s.warbands {
		for fi := range s.warbands[wi].Fighters {
			f := &s.warbands[wi].Fighters[fi]
			f.ActivationUsed = false
			f.AbilityDice = map[string]AbilityDie{}
		}
	}
	s.logFor(next, EventRound, fmt.Sprintf("Battle round %d begins", s.round))
	return true
}

func (s *Session) warband(w int) (*ActiveWarband, error) {
	if w < 0 || w >= len(s.warbands) {
		return nil, fmt.Errorf("%w: index %d", ErrWarbandNotFound, w)
	}
	return &s.warbands[w], nil
}

func (s *Session) fighter(ref FighterRef) (*ActiveFighter, error) {
	aw, err := s.warband(ref.Warband)
	if err != nil {
		return nil, err
	}
	if ref.Fighter < 0 || ref.Fighter >= len(aw.Fighters) {
		return nil, fmt.Errorf("%w: warband %d fighter %d", ErrFighterNotFound, ref.Warband, ref.Fighter)
	}
	return &aw.Fighters[ref.Fighter], nil
}

func (s *Session) log(kind EventKind, msg string) { s.logFor(s.active, kind, msg) }

func (s *Session) logFor(w int, kind EventKind, msg string) {
	s.events = append(s.events, Event{Round: s.round, Warband: w, Kind: kind, Message: msg, At: s.now()})
}
