package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/pefman/warband-tracker/internal/models"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrNotShared   = errors.New("warband is not public")
	ErrNoSelection = errors.New("no warbands selected")
	ErrNotInRoster = errors.New("warband not available to this owner")
)

// Provider supplies warband and fighter templates to a game.
type Provider interface {
	ListWarbands(ctx context.Context, owner string) ([]models.Warband, error)
	ListFighters(ctx context.Context, warbandID int64) ([]models.Fighter, error)
}

// Select resolves the chosen warband IDs for owner into rosters, keeping the
// selection order. An ID that the provider doesn't list for owner is an error.
func Select(ctx context.Context, p Provider, owner string, ids []int64) ([]models.Roster, error) {
	if len(ids) == 0 {
		return nil, ErrNoSelection
	}
	warbands, err := p.ListWarbands(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list warbands: %w", err)
	}
	byID := make(map[int64]models.Warband, len(warbands))
	for _, w := range warbands {
		byID[w.ID] = w
	}

	out := make([]models.Roster, 0, len(ids))
	for _, id := range ids {
		w, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrNotInRoster, id)
		}
		fighters, err := p.ListFighters(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list fighters of warband %d: %w", id, err)
		}
		out = append(out, models.Roster{Warband: w, Fighters: fighters})
	}
	return out, nil
}
