package stats

import "time"

// keepDays is how many days of leaderboards stay in memory.
const keepDays = 7

// Today returns a copy of the current UTC day's leaderboard.
func (b *Board) Today() Daily {
	return b.On(b.now())
}

// On returns a copy of the leaderboard for the UTC day containing at.
func (b *Board) On(at time.Time) Daily {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := at.UTC().Format(dateLayout)
	d, ok := b.days[key]
	if !ok {
		return Daily{Date: key}
	}
	out := *d
	if d.BiggestStrike != nil {
		s := *d.BiggestStrike
		out.BiggestStrike = &s
	}
	if d.LongestGame != nil {
		g := *d.LongestGame
		g.Warbands = append([]string(nil), g.Warbands...)
		out.LongestGame = &g
	}
	return out
}

// Reset clears every day.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k := range b.days {
		delete(b.days, k)
	}
}

// prune drops days older than keepDays before at. Caller holds mu.
func (b *Board) prune(at time.Time) {
	cutoff := at.UTC().AddDate(0, 0, -keepDays).Format(dateLayout)
	for k := range b.days {
		if k < cutoff {
			delete(b.days, k)
		}
	}
}
