package game

import "github.com/pefman/warband-tracker/internal/models"

// Tracker owns at most one running session. The zero value is ready to use and not started.
type Tracker struct {
	opts    []Option
	session *Session
}

// NewTracker returns a tracker whose sessions start with opts.
func NewTracker(opts ...Option) *Tracker {
	return &Tracker{opts: opts}
}

// Start begins a game. A running game must be reset or ended first.
func (t *Tracker) Start(rosters []models.Roster) (*Session, error) {
	if t.session != nil {
		return nil, ErrAlreadyStarted
	}
	s, err := Start(rosters, t.opts...)
	if err != nil {
		return nil, err
	}
	t.session = s
	return s, nil
}

// Started reports whether a game is in progress.
func (t *Tracker) Started() bool { return t.session != nil }

// Session returns the running game.
func (t *Tracker) Session() (*Session, error) {
	if t.session == nil {
		return nil, ErrNotStarted
	}
	return t.session, nil
}

// Reset discards the running game, if any. There is no undo.
func (t *Tracker) Reset() { t.session = nil }

// End reports on the running game and then discards it.
func (t *Tracker) End() (Report, error) {
	if t.session == nil {
		return Report{}, ErrNotStarted
	}
	r := t.session.Report()
	t.session = nil
	return r, nil
}
