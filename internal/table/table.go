package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pefman/warband-tracker/internal/game"
	"github.com/pefman/warband-tracker/internal/roster"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadPayload     = errors.New("bad command payload")
	ErrNoRosterSource = errors.New("no roster source configured")
	ErrTableClosed    = errors.New("table closed")
)

// Message is what the server sends to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Command is what clients send.
type Command struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Peer is one connected client.
type Peer struct {
	ID   string
	Name string

	mu   sync.Mutex
	conn *websocket.Conn
}

const writeWait = 10 * time.Second

func (p *Peer) send(m Message) error {
	if p == nil || p.conn == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(m)
}

// Table is one shared game: a tracker plus the clients watching it.
type Table struct {
	ID        string
	Name      string
	CreatedAt time.Time

	m   *Manager
	log zerolog.Logger

	mu      sync.Mutex
	tracker *game.Tracker
	temp    *roster.TempRoster
	peers   map[*Peer]struct{}
	report  *game.Report
	closed  bool
}

// Snapshot is the table as clients see it.
type Snapshot struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	CreatedAt  time.Time    `json:"createdAt"`
	Players    []string     `json:"players"`
	Started    bool         `json:"started"`
	Game       *game.State  `json:"game,omitempty"`
	LastReport *game.Report `json:"lastReport,omitempty"`
}

// Summary is the table list entry.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Players   int       `json:"players"`
	Started   bool      `json:"started"`
	Round     int       `json:"round,omitempty"`
}

// Snapshot returns a detached copy of the table state.
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Table) snapshot() Snapshot {
	s := Snapshot{
		ID:         t.ID,
		Name:       t.Name,
		CreatedAt:  t.CreatedAt,
		Players:    make([]string, 0, len(t.peers)),
		LastReport: t.report,
	}
	for p := range t.peers {
		s.Players = append(s.Players, p.Name)
	}
	sort.Strings(s.Players)
	if sess, err := t.tracker.Session(); err == nil {
		st := sess.Snapshot()
		s.Started = true
		s.Game = &st
	}
	return s
}

func (t *Table) summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Summary{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt, Players: len(t.peers)}
	if sess, err := t.tracker.Session(); err == nil {
		s.Started = true
		s.Round = sess.BattleRound()
	}
	return s
}

// Dispatch applies one command. On success every peer gets the new state;
// on failure only from hears about it, through the returned error.
func (t *Table) Dispatch(ctx context.Context, from *Peer, cmd Command) error {
	h, ok := t.m.commands[cmd.Type]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
		t.m.metrics.record(ctx, "unknown", err)
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		t.m.metrics.record(ctx, cmd.Type, ErrTableClosed)
		return ErrTableClosed
	}
	start := time.Now()
	err := h(ctx, t, from, cmd.Data)
	t.m.metrics.record(ctx, cmd.Type, err)
	if err != nil {
		t.log.Debug().Str("command", cmd.Type).Err(err).Msg("table: command rejected")
		return err
	}
	t.log.Debug().Str("command", cmd.Type).Dur("took", time.Since(start)).Msg("table: command applied")
	t.broadcast(Message{Type: "state", Data: t.snapshot()})
	return nil
}

// broadcast sends m to every peer. Caller holds mu.
func (t *Table) broadcast(m Message) {
	for p := range t.peers {
		if err := p.send(m); err != nil {
			t.log.Warn().Str("peer", p.ID).Err(err).Msg("ws: write error")
		}
	}
}

// join adds p to the table. It reports false once the table is closed.
func (t *Table) join(p *Peer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.peers[p] = struct{}{}
	_ = p.send(Message{Type: "you", Data: map[string]string{"id": p.ID, "name": p.Name, "table": t.ID}})
	t.broadcast(Message{Type: "state", Data: t.snapshot()})
	return true
}

func (t *Table) leave(p *Peer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, p)
	if !t.closed {
		t.broadcast(Message{Type: "state", Data: t.snapshot()})
	}
}

// close rejects further commands, tells every peer and drops their connections.
func (t *Table) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.broadcast(Message{Type: "closed", Data: map[string]string{"table": t.ID}})
	for p := range t.peers {
		if p.conn != nil {
			_ = p.conn.Close()
		}
	}
}

func (t *Table) session() (*game.Session, error) {
	return t.tracker.Session()
}
