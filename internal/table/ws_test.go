package table

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inMsg struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func next(t *testing.T, conn *websocket.Conn) inMsg {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m inMsg
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func nextState(t *testing.T, conn *websocket.Conn) Snapshot {
	t.Helper()
	m := next(t, conn)
	require.Equal(t, "state", m.Type, "got %s: %s", m.Type, m.Data)
	var s Snapshot
	require.NoError(t, json.Unmarshal(m.Data, &s))
	return s
}

func TestServeWS(t *testing.T) {
	m := newManager(t, Config{})
	tb := m.Create("Online")
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.ServeWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ana := dial(t, srv, "table="+tb.ID+"&name=Ana")
	hello := next(t, ana)
	assert.Equal(t, "you", hello.Type)
	assert.Contains(t, string(hello.Data), tb.ID)
	assert.Equal(t, []string{"Ana"}, nextState(t, ana).Players)

	bo := dial(t, srv, "table="+tb.ID+"&name=Bo")
	assert.Equal(t, "you", next(t, bo).Type)
	assert.Equal(t, []string{"Ana", "Bo"}, nextState(t, bo).Players)
	assert.Equal(t, []string{"Ana", "Bo"}, nextState(t, ana).Players)

	require.NoError(t, ana.WriteJSON(cmd(t, "start_temp", tempPair())))
	for _, c := range []*websocket.Conn{ana, bo} {
		s := nextState(t, c)
		assert.True(t, s.Started)
		require.NotNil(t, s.Game)
		assert.Len(t, s.Game.ActiveWarbands, 2)
	}

	// errors go to the sender only
	require.NoError(t, bo.WriteJSON(cmd(t, "roll", map[string]int{"warband": 9})))
	e := next(t, bo)
	assert.Equal(t, "error", e.Type)
	assert.Contains(t, string(e.Data), "warband not in game")

	require.NoError(t, ana.WriteJSON(cmd(t, "end_turn", nil)))
	assert.Equal(t, 1, nextState(t, ana).Game.ActiveWarbandIndex)
	assert.Equal(t, 1, nextState(t, bo).Game.ActiveWarbandIndex)

	require.NoError(t, bo.WriteJSON(cmd(t, "end", nil)))
	for _, c := range []*websocket.Conn{ana, bo} {
		r := next(t, c)
		assert.Equal(t, "report", r.Type)
		s := nextState(t, c)
		assert.False(t, s.Started)
		require.NotNil(t, s.LastReport)
	}

	require.NoError(t, bo.Close())
	assert.Equal(t, []string{"Ana"}, nextState(t, ana).Players)
}

func TestServeWS_RemoveDisconnectsPeers(t *testing.T) {
	m := newManager(t, Config{})
	tb := m.Create("Closing time")
	srv := httptest.NewServer(http.HandlerFunc(m.ServeWS))
	defer srv.Close()

	ana := dial(t, srv, "table="+tb.ID+"&name=Ana")
	assert.Equal(t, "you", next(t, ana).Type)
	nextState(t, ana)

	require.True(t, m.Remove(tb.ID))
	bye := next(t, ana)
	assert.Equal(t, "closed", bye.Type)
	assert.Contains(t, string(bye.Data), tb.ID)

	require.NoError(t, ana.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m2 inMsg
	assert.Error(t, ana.ReadJSON(&m2))

	// late joiners holding the old table are turned away
	p := &Peer{ID: "late", Name: "Bo"}
	assert.False(t, tb.join(p))
}

func TestServeWS_UnknownTable(t *testing.T) {
	m := newManager(t, Config{})
	srv := httptest.NewServer(http.HandlerFunc(m.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?table=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRandomName(t *testing.T) {
	assert.Contains(t, randomName(), " ")
}
