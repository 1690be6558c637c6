package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pefman/warband-tracker/internal/engine"
	"gorm.io/datatypes"
)

// ========================= Roster Records =========================
// Shapes shared by the record store, the roster API and the game server.

var ErrInvalid = errors.New("invalid record")

type Warband struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Owner         string    `json:"owner,omitempty" gorm:"index"`
	Name          string    `json:"name" gorm:"not null"`
	Faction       string    `json:"faction" gorm:"not null"`
	PointsLimit   int       `json:"pointsLimit" gorm:"not null;default:1000"`
	CurrentPoints int       `json:"currentPoints" gorm:"not null;default:0"`
	Description   string    `json:"description,omitempty"`
	Public        bool      `json:"public" gorm:"index"`
	ShareCode     string    `json:"shareCode,omitempty" gorm:"index"`
	Views         int       `json:"views"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Fighter struct {
	ID             int64                       `json:"id" gorm:"primaryKey"`
	WarbandID      int64                       `json:"warbandId" gorm:"index;not null"`
	Name           string                      `json:"name" gorm:"not null"`
	Type           string                      `json:"type" gorm:"not null"`
	PointsCost     int                         `json:"pointsCost" gorm:"not null"`
	Move           int                         `json:"move" gorm:"not null"`
	Toughness      int                         `json:"toughness" gorm:"not null"`
	Wounds         int                         `json:"wounds" gorm:"not null"`
	Strength       int                         `json:"strength" gorm:"not null"`
	Attacks        int                         `json:"attacks" gorm:"not null"`
	Damage         string                      `json:"damage" gorm:"not null"`
	CriticalDamage string                      `json:"criticalDamage" gorm:"not null"`
	Range          int                         `json:"range" gorm:"not null;default:1"`
	Abilities      datatypes.JSONSlice[string] `json:"abilities"`
	ImageURL       string                      `json:"imageUrl,omitempty"`
	Battles        int                         `json:"battles"`
	Kills          int                         `json:"kills"`
	Deaths         int                         `json:"deaths"`
}

// HasAbility reports whether name is one of the fighter's declared abilities (case-insensitive).
func (f Fighter) HasAbility(name string) bool {
	for _, a := range f.Abilities {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

type Battle struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Scenario    string    `json:"scenario" gorm:"not null"`
	Date        time.Time `json:"date"`
	MapType     string    `json:"mapType,omitempty"`
	WinnerID    int64     `json:"winnerId"`
	LoserID     int64     `json:"loserId"`
	WinnerScore int       `json:"winnerScore"`
	LoserScore  int       `json:"loserScore"`
	Rounds      int       `json:"rounds,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

type BattleFighterStat struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	BattleID  int64  `json:"battleId" gorm:"index;not null"`
	FighterID int64  `json:"fighterId" gorm:"not null"`
	Kills     int    `json:"kills"`
	WasKilled bool   `json:"wasKilled"`
	Notes     string `json:"notes,omitempty"`
}

// Roster is a warband together with its fighters, as handed to a game.
type Roster struct {
	Warband  Warband   `json:"warband"`
	Fighters []Fighter `json:"fighters"`
}

// ========================= Validation =========================

func (w Warband) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: warband name is required", ErrInvalid)
	}
	if strings.TrimSpace(w.Faction) == "" {
		return fmt.Errorf("%w: warband faction is required", ErrInvalid)
	}
	if w.PointsLimit < 0 {
		return fmt.Errorf("%w: points limit must not be negative", ErrInvalid)
	}
	return nil
}

func (f Fighter) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: fighter name is required", ErrInvalid)
	}
	if strings.TrimSpace(f.Type) == "" {
		return fmt.Errorf("%w: fighter type is required", ErrInvalid)
	}
	stats := []struct {
		name     string
		v        int
		min, max int
	}{
		{"move", f.Move, 1, 10},
		{"toughness", f.Toughness, 1, 10},
		{"strength", f.Strength, 1, 10},
		{"attacks", f.Attacks, 1, 10},
		{"wounds", f.Wounds, 1, 0},
		{"range", f.Range, 1, 0},
	}
	for _, s := range stats {
		if s.v < s.min || (s.max > 0 && s.v > s.max) {
			if s.max > 0 {
				return fmt.Errorf("%w: %s must be between %d and %d", ErrInvalid, s.name, s.min, s.max)
			}
			return fmt.Errorf("%w: %s must be at least %d", ErrInvalid, s.name, s.min)
		}
	}
	if f.PointsCost < 0 {
		return fmt.Errorf("%w: points cost must not be negative", ErrInvalid)
	}
	if !engine.ValidExpr(f.Damage) {
		return fmt.Errorf("%w: damage %q is not a number up to %d or a dice expression of at most %d D3s or D6s", ErrInvalid, f.Damage, engine.MaxTerm, engine.MaxDice)
	}
	if !engine.ValidExpr(f.CriticalDamage) {
		return fmt.Errorf("%w: critical damage %q is not a number up to %d or a dice expression of at most %d D3s or D6s", ErrInvalid, f.CriticalDamage, engine.MaxTerm, engine.MaxDice)
	}
	return nil
}

func (b Battle) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: battle name is required", ErrInvalid)
	}
	if strings.TrimSpace(b.Scenario) == "" {
		return fmt.Errorf("%w: battle scenario is required", ErrInvalid)
	}
	return nil
}
