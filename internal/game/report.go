package game

import (
	"sort"
	"time"
)

// Report summarises a session, typically when it ends.
type Report struct {
	Rounds    int             `json:"rounds"`
	StartedAt time.Time       `json:"startedAt"`
	EndedAt   time.Time       `json:"endedAt"`
	Warbands  []WarbandReport `json:"warbands"`
	// Standings lists indexes into Warbands, best first.
	Standings []int `json:"standings"`
}

type WarbandReport struct {
	WarbandID       int64           `json:"warbandId"`
	Name            string          `json:"name"`
	Treasures       int             `json:"treasures"`
	Standing        int             `json:"standing"` // 1 is first place
	FightersLeft    int             `json:"fightersLeft"`
	WoundsRemaining int             `json:"woundsRemaining"`
	WoundsTotal     int             `json:"woundsTotal"`
	Fighters        []FighterReport `json:"fighters"`
}

type FighterReport struct {
	FighterID     int64  `json:"fighterId"`
	Name          string `json:"name"`
	CurrentWounds int    `json:"currentWounds"`
	MaxWounds     int    `json:"maxWounds"`
	DamageTaken   int    `json:"damageTaken"`
	Kills         int    `json:"kills"`
	Defeated      bool   `json:"defeated"`
	HasTreasure   bool   `json:"hasTreasure"`
}

// Report builds the summary. Warbands are ranked by treasure held, then by
// fighters still standing, then by wounds remaining; ties keep turn order.
func (s *Session) Report() Report {
	r := Report{
		Rounds:    s.round,
		StartedAt: s.started,
		EndedAt:   s.now(),
		Warbands:  make([]WarbandReport, len(s.warbands)),
	}
	for wi, w := range s.warbands {
		wr := WarbandReport{
			WarbandID: w.Template.ID,
			Name:      w.Template.Name,
			Treasures: w.TotalTreasures,
			Fighters:  make([]FighterReport, 0, len(w.Fighters)),
		}
		for _, f := range w.Fighters {
			wr.WoundsRemaining += f.CurrentWounds
			wr.WoundsTotal += f.Template.Wounds
			if !f.Defeated() {
				wr.FightersLeft++
			}
			wr.Fighters = append(wr.Fighters, FighterReport{
				FighterID:     f.Template.ID,
				Name:          f.Template.Name,
				CurrentWounds: f.CurrentWounds,
				MaxWounds:     f.Template.Wounds,
				DamageTaken:   f.DamageTaken,
				Kills:         f.Kills,
				Defeated:      f.Defeated(),
				HasTreasure:   f.HasTreasure,
			})
		}
		r.Warbands[wi] = wr
	}

	r.Standings = make([]int, len(r.Warbands))
	for i := range r.Standings {
		r.Standings[i] = i
	}
	sort.SliceStable(r.Standings, func(i, j int) bool {
		a, b := r.Warbands[r.Standings[i]], r.Warbands[r.Standings[j]]
		if a.Treasures != b.Treasures {
			return a.Treasures > b.Treasures
		}
		if a.FightersLeft != b.FightersLeft {
			return a.FightersLeft > b.FightersLeft
		}
		return a.WoundsRemaining > b.WoundsRemaining
	})
	for place, wi := range r.Standings {
		r.Warbands[wi].Standing = place + 1
	}
	return r
}
