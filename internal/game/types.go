package game

import (
	"errors"
	"time"

	"github.com/pefman/warband-tracker/internal/engine"
	"github.com/pefman/warband-tracker/internal/models"
)

var (
	ErrNoWarbands       = errors.New("at least one warband must be selected")
	ErrDuplicateWarband = errors.New("warband selected more than once")
	ErrWarbandNotFound  = errors.New("warband not in game")
	ErrFighterNotFound  = errors.New("fighter not in game")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrInvalidDie       = errors.New("die value must be between 1 and 6")
	ErrEmptyLabel       = errors.New("status effect label is empty")
	ErrEmptyAbility     = errors.New("ability name is empty")
	ErrUnknownAbility   = errors.New("fighter has no such ability")
	ErrNotStarted       = errors.New("no game in progress")
	ErrAlreadyStarted   = errors.New("game already in progress")
)

// FighterRef addresses one fighter by position: warband index, then fighter index within it.
type FighterRef struct {
	Warband int `json:"warband"`
	Fighter int `json:"fighter"`
}

// AbilityDie records that an ability was paid for this round and with which face.
type AbilityDie struct {
	Used  bool `json:"used"`
	Value int  `json:"diceValue"`
}

// ActiveFighter is the mutable in-game state wrapped around a fighter template.
type ActiveFighter struct {
	Template       models.Fighter        `json:"template"`
	CurrentWounds  int                   `json:"currentWounds"`
	ActivationUsed bool                  `json:"activationUsed"`
	HasTreasure    bool                  `json:"hasTreasure"`
	StatusEffects  []string              `json:"statusEffects"` // set, insertion ordered
	AbilityDice    map[string]AbilityDie `json:"abilityDice"`
	DamageTaken    int                   `json:"damageTaken"`
	Kills          int                   `json:"kills"`
}

// HasStatus reports whether label is currently applied.
func (f ActiveFighter) HasStatus(label string) bool {
	return indexOf(f.StatusEffects, label) >= 0
}

// Defeated reports whether the fighter is out of wounds. It stays in play either way.
func (f ActiveFighter) Defeated() bool { return f.CurrentWounds == 0 }

func (f ActiveFighter) clone() ActiveFighter {
	c := f
	c.Template.Abilities = append(c.Template.Abilities[:0:0], f.Template.Abilities...)
	c.StatusEffects = append([]string{}, f.StatusEffects...)
	c.AbilityDice = make(map[string]AbilityDie, len(f.AbilityDice))
	for k, v := range f.AbilityDice {
		c.AbilityDice[k] = v
	}
	return c
}

// ActiveWarband is one side of the battle.
type ActiveWarband struct {
	Template       models.Warband  `json:"warband"`
	Fighters       []ActiveFighter `json:"fighters"`
	DicePool       engine.Pool     `json:"dicePool"`
	TotalTreasures int             `json:"totalTreasures"`
}

func (w ActiveWarband) clone() ActiveWarband {
	c := w
	c.DicePool = w.DicePool.Clone()
	c.Fighters = make([]ActiveFighter, len(w.Fighters))
	for i, f := range w.Fighters {
		c.Fighters[i] = f.clone()
	}
	return c
}

type EventKind string

const (
	EventStart      EventKind = "start"
	EventRoll       EventKind = "roll"
	EventDamage     EventKind = "damage"
	EventHeal       EventKind = "heal"
	EventStrike     EventKind = "strike"
	EventActivation EventKind = "activation"
	EventTreasure   EventKind = "treasure"
	EventStatus     EventKind = "status"
	EventAbility    EventKind = "ability"
	EventTurn       EventKind = "turn"
	EventRound      EventKind = "round"
)

// Event is one line of the battle log.
type Event struct {
	Round   int       `json:"round"`
	Warband int       `json:"warband"`
	Kind    EventKind `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// State is a detached copy of a session, safe to hand to encoders and other goroutines.
type State struct {
	BattleRound        int             `json:"battleRound"`
	ActiveWarbandIndex int             `json:"activeWarbandIndex"`
	ActiveWarbands     []ActiveWarband `json:"activeWarbands"`
	Events             []Event         `json:"events"`
	StartedAt          time.Time       `json:"startedAt"`
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
