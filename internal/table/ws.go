package table

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 64 << 10

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// ServeWS upgrades /ws?table=ID&name=N and plays the connection against the table.
func (m *Manager) ServeWS(w http.ResponseWriter, r *http.Request) {
	t, ok := m.Get(r.URL.Query().Get("table"))
	if !ok {
		http.Error(w, "table not found", http.StatusNotFound)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = randomName()
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warn().Err(err).Msg("ws: upgrade failed")
		return
	}
	conn.SetReadLimit(maxMessageSize)

	p := &Peer{ID: uuid.NewString(), Name: name, conn: conn}
	t.log.Info().Str("peer", p.ID).Str("name", name).Str("from", r.RemoteAddr).Msg("ws: connect")
	if !t.join(p) {
		_ = conn.WriteJSON(Message{Type: "closed", Data: map[string]string{"table": t.ID}})
		_ = conn.Close()
		return
	}
	go m.read(t, p)
}

func (m *Manager) read(t *Table, p *Peer) {
	defer func() {
		t.leave(p)
		_ = p.conn.Close()
		t.log.Info().Str("peer", p.ID).Msg("ws: closed")
	}()
	for {
		var cmd Command
		if err := p.conn.ReadJSON(&cmd); err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				t.log.Debug().Str("peer", p.ID).Err(err).Msg("ws: read error")
			}
			return
		}
		t.log.Debug().Str("peer", p.ID).Str("type", cmd.Type).Msg("ws: recv")
		if err := t.Dispatch(context.Background(), p, cmd); err != nil {
			_ = p.send(Message{Type: "error", Data: map[string]string{
				"command": cmd.Type,
				"message": err.Error(),
			}})
		}
	}
}

// randomName builds a nickname for players who didn't give one.
func randomName() string {
	adjs := []string{
		"Grim", "Cheeky", "Sneaky", "Lucky", "Unlucky", "Brutal", "Stoic", "Rusty", "Shiny", "Wild",
	}
	names := []string{
		"Gor", "Ogroid", "Splintered Fang", "Iron Golem", "Untamed Beast", "Corvus", "Scion", "Cypher Lord",
	}
	return adjs[rand.Intn(len(adjs))] + " " + names[rand.Intn(len(names))]
}
