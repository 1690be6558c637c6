package stats

import (
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// Strike is one resolved hit worth remembering.
type Strike struct {
	Damage   int       `json:"damage"`
	Critical bool      `json:"critical"`
	Attacker string    `json:"attacker"`
	Target   string    `json:"target"`
	Warband  string    `json:"warband,omitempty"`
	Table    string    `json:"table,omitempty"`
	At       time.Time `json:"at"`
}

// Game is a finished game as the leaderboard sees it.
type Game struct {
	Rounds   int       `json:"rounds"`
	Warbands []string  `json:"warbands"`
	Winner   string    `json:"winner,omitempty"`
	Table    string    `json:"table,omitempty"`
	At       time.Time `json:"at"`
}

// Daily is the leaderboard of one UTC day.
type Daily struct {
	Date          string  `json:"date"`
	Games         int     `json:"games"`
	Strikes       int     `json:"strikes"`
	BiggestStrike *Strike `json:"biggestStrike,omitempty"`
	LongestGame   *Game   `json:"longestGame,omitempty"`
}

// Board keeps daily records in memory. Safe for concurrent use.
type Board struct {
	mu   sync.Mutex
	now  func() time.Time
	days map[string]*Daily
}

func NewBoard() *Board {
	return &Board{now: time.Now, days: map[string]*Daily{}}
}

func (b *Board) day(at time.Time) *Daily {
	key := at.UTC().Format(dateLayout)
	d := b.days[key]
	if d == nil {
		d = &Daily{Date: key}
		b.days[key] = d
		b.prune(at)
	}
	return d
}

// RecordStrike keeps s if it is the day's biggest. Ties go to the critical
// hit, then to the earlier strike.
func (b *Board) RecordStrike(s Strike) {
	if s.Damage <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.At.IsZero() {
		s.At = b.now()
	}
	d := b.day(s.At)
	d.Strikes++
	cur := d.BiggestStrike
	if cur == nil || s.Damage > cur.Damage || (s.Damage == cur.Damage && s.Critical && !cur.Critical) {
		d.BiggestStrike = &s
	}
}

// RecordGame counts a finished game and keeps it if it ran the most rounds today.
func (b *Board) RecordGame(g Game) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g.At.IsZero() {
		g.At = b.now()
	}
	g.Warbands = append([]string(nil), g.Warbands...)
	d := b.day(g.At)
	d.Games++
	if d.LongestGame == nil || g.Rounds > d.LongestGame.Rounds {
		d.LongestGame = &g
	}
}
