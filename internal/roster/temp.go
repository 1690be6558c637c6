package roster

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pefman/warband-tracker/internal/models"
)

// Stats a temporary fighter gets when only its name and wounds are given.
const (
	TempFaction        = "Mixed"
	TempDescription    = "Temporary warband"
	TempType           = "Warrior"
	TempMove           = 4
	TempToughness      = 3
	TempWounds         = 10
	TempStrength       = 3
	TempAttacks        = 2
	TempDamage         = "1"
	TempCriticalDamage = "2"
	TempRange          = 1
	TempPointsLimit    = 1000
	TempMaxWounds      = 100
)

// TempFighter is the quick-setup form of a fighter. Zero Wounds means the default.
type TempFighter struct {
	Name   string `json:"name"`
	Wounds int    `json:"wounds"`
}

// TempBuilder collects a quick-setup warband.
type TempBuilder struct {
	Name     string        `json:"name"`
	Fighters []TempFighter `json:"fighters"`
}

// Add appends a fighter and returns the builder for chaining.
func (b *TempBuilder) Add(name string, wounds int) *TempBuilder {
	b.Fighters = append(b.Fighters, TempFighter{Name: name, Wounds: wounds})
	return b
}

func (b TempBuilder) validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: warband name is required", models.ErrInvalid)
	}
	if len(b.Fighters) == 0 {
		return fmt.Errorf("%w: at least one fighter is required", models.ErrInvalid)
	}
	for i, f := range b.Fighters {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%w: fighter %d: name is required", models.ErrInvalid, i+1)
		}
		if f.Wounds < 0 || f.Wounds > TempMaxWounds {
			return fmt.Errorf("%w: fighter %d: wounds must be between 1 and %d", models.ErrInvalid, i+1, TempMaxWounds)
		}
	}
	return nil
}

// TempRoster holds temporary warbands for the lifetime of a process or table.
// IDs it hands out are negative so they never collide with stored records.
type TempRoster struct {
	mu       sync.Mutex
	lastID   int64
	warbands []models.Warband
	fighters map[int64][]models.Fighter
}

var _ Provider = (*TempRoster)(nil)

func NewTempRoster() *TempRoster {
	return &TempRoster{fighters: map[int64][]models.Fighter{}}
}

func (t *TempRoster) nextID() int64 {
	t.lastID--
	return t.lastID
}

// Build validates b, fills in default stats and keeps the result under owner.
func (t *TempRoster) Build(owner string, b TempBuilder) (models.Roster, error) {
	if err := b.validate(); err != nil {
		return models.Roster{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	w := models.Warband{
		ID:          t.nextID(),
		Owner:       owner,
		Name:        strings.TrimSpace(b.Name),
		Faction:     TempFaction,
		PointsLimit: TempPointsLimit,
		Description: TempDescription,
	}
	fighters := make([]models.Fighter, 0, len(b.Fighters))
	for _, tf := range b.Fighters {
		wounds := tf.Wounds
		if wounds == 0 {
			wounds = TempWounds
		}
		fighters = append(fighters, models.Fighter{
			ID:             t.nextID(),
			WarbandID:      w.ID,
			Name:           strings.TrimSpace(tf.Name),
			Type:           TempType,
			Move:           TempMove,
			Toughness:      TempToughness,
			Wounds:         wounds,
			Strength:       TempStrength,
			Attacks:        TempAttacks,
			Damage:         TempDamage,
			CriticalDamage: TempCriticalDamage,
			Range:          TempRange,
			Abilities:      []string{},
		})
	}
	t.warbands = append(t.warbands, w)
	t.fighters[w.ID] = fighters

	return models.Roster{Warband: w, Fighters: append([]models.Fighter(nil), fighters...)}, nil
}

// ListWarbands returns the temporary warbands built for owner, or all of them when owner is empty.
func (t *TempRoster) ListWarbands(_ context.Context, owner string) ([]models.Warband, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := []models.Warband{}
	for _, w := range t.warbands {
		if owner == "" || w.Owner == owner {
			out = append(out, w)
		}
	}
	return out, nil
}

func (t *TempRoster) ListFighters(_ context.Context, warbandID int64) ([]models.Fighter, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fs, ok := t.fighters[warbandID]
	if !ok {
		return nil, fmt.Errorf("%w: temporary warband %d", ErrNotFound, warbandID)
	}
	return append([]models.Fighter(nil), fs...), nil
}

// Forget drops a temporary warband.
func (t *TempRoster) Forget(warbandID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.fighters, warbandID)
	for i, w := range t.warbands {
		if w.ID == warbandID {
			t.warbands = append(t.warbands[:i], t.warbands[i+1:]...)
			break
		}
	}
}
