package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/pefman/warband-tracker/internal/api"
	"github.com/pefman/warband-tracker/internal/database"
	"github.com/pefman/warband-tracker/internal/models"
	"github.com/pefman/warband-tracker/internal/roster"
	"github.com/pefman/warband-tracker/internal/stats"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	s := &server{store: roster.NewStore(db, zerolog.Nop()), board: stats.NewBoard(), log: zerolog.Nop()}
	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func newFighter(warbandID int64, name string, cost int) models.Fighter {
	return models.Fighter{WarbandID: warbandID, Name: name, Type: "Warrior", PointsCost: cost, Move: 4,
		Toughness: 4, Wounds: 12, Strength: 4, Attacks: 2, Damage: "2", CriticalDamage: "4", Range: 1}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	var out map[string]string
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/healthz", nil, &out))
	assert.Equal(t, "ok", out["status"])
}

func TestWarbandAndFighterRoutes(t *testing.T) {
	srv := newTestServer(t)

	var wb models.Warband
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/warbands?owner=ana",
		models.Warband{Name: "Iron Golems", Faction: "Chaos"}, &wb))
	assert.Equal(t, "ana", wb.Owner)

	var f models.Fighter
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/fighters", newFighter(wb.ID, "Dominar", 200), &f))
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/fighters", newFighter(wb.ID, "Breacher", 150), nil))

	var fighters []models.Fighter
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/fighters?warbandId="+itoa(wb.ID), nil, &fighters))
	assert.Len(t, fighters, 2)

	var got models.Warband
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/warbands/"+itoa(wb.ID), nil, &got))
	assert.Equal(t, 350, got.CurrentPoints)

	// partial update keeps the other fields
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPatch, "/api/fighters/"+itoa(f.ID), map[string]any{"wounds": 20}, &f))
	assert.Equal(t, 20, f.Wounds)
	assert.Equal(t, "Dominar", f.Name)

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPatch, "/api/warbands/"+itoa(wb.ID), map[string]any{"description": "Heavy"}, &got))
	assert.Equal(t, "Heavy", got.Description)
	assert.Equal(t, "Iron Golems", got.Name)

	var list []models.Warband
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/warbands?owner=bo", nil, &list))
	assert.Empty(t, list)

	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodPost, "/api/fighters", models.Fighter{WarbandID: wb.ID, Name: "Bad"}, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodGet, "/api/fighters?warbandId=abc", nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/api/fighters/999", nil, nil))

	assert.Equal(t, http.StatusNoContent, call(t, srv, http.MethodDelete, "/api/fighters/"+itoa(f.ID), nil, nil))
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/warbands/"+itoa(wb.ID), nil, &got))
	assert.Equal(t, 150, got.CurrentPoints)

	assert.Equal(t, http.StatusNoContent, call(t, srv, http.MethodDelete, "/api/warbands/"+itoa(wb.ID), nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/api/warbands/"+itoa(wb.ID), nil, nil))
}

func TestShareAndCopyRoutes(t *testing.T) {
	srv := newTestServer(t)
	var wb models.Warband
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/warbands?owner=ana",
		models.Warband{Name: "Untamed", Faction: "Chaos"}, &wb))
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/fighters", newFighter(wb.ID, "Hunter", 100), nil))

	assert.Equal(t, http.StatusForbidden, call(t, srv, http.MethodPost, "/api/warbands/"+itoa(wb.ID)+"/copy?owner=bo", nil, nil))

	var shared models.Warband
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/api/warbands/"+itoa(wb.ID)+"/share", nil, &shared))
	require.NotEmpty(t, shared.ShareCode)

	var pub []models.Warband
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/public/warbands", nil, &pub))
	assert.Len(t, pub, 1)

	var r models.Roster
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/public/warbands/"+shared.ShareCode, nil, &r))
	assert.Equal(t, "Untamed", r.Warband.Name)
	assert.Len(t, r.Fighters, 1)
	assert.Equal(t, 1, r.Warband.Views)

	var cp models.Roster
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/warbands/"+itoa(wb.ID)+"/copy?owner=bo", nil, &cp))
	assert.Equal(t, "bo", cp.Warband.Owner)
	assert.Len(t, cp.Fighters, 1)

	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/api/public/warbands/unknown", nil, nil))
}

func TestBattleRoutesAndClientRecord(t *testing.T) {
	srv := newTestServer(t)
	var wb models.Warband
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/warbands", models.Warband{Name: "A", Faction: "X"}, &wb))
	var f models.Fighter
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/fighters", newFighter(wb.ID, "Gor", 10), &f))

	// the game server's client talks to these routes
	c := api.NewClient(srv.URL)
	b, err := c.RecordBattle(context.Background(), api.BattleRecord{
		Battle: models.Battle{Name: "A vs B", Scenario: "Tracked game", WinnerID: wb.ID, Rounds: 4},
		Stats:  []models.BattleFighterStat{{FighterID: f.ID, Kills: 2}},
	})
	require.NoError(t, err)
	require.NotZero(t, b.ID)

	var st []models.BattleFighterStat
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/battles/"+itoa(b.ID)+"/stats", nil, &st))
	require.Len(t, st, 1)
	assert.Equal(t, 2, st[0].Kills)

	var gor models.Fighter
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/fighters/"+itoa(f.ID), nil, &gor))
	assert.Equal(t, 1, gor.Battles)
	assert.Equal(t, 2, gor.Kills)

	var daily stats.Daily
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/stats/daily", nil, &daily))
	assert.Equal(t, 1, daily.Games)
	require.NotNil(t, daily.LongestGame)
	assert.Equal(t, []string{"A", "B"}, daily.LongestGame.Warbands)

	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/battle-fighter-stats",
		models.BattleFighterStat{BattleID: b.ID, FighterID: f.ID, WasKilled: true}, nil))
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/fighters/"+itoa(f.ID), nil, &gor))
	assert.Equal(t, 1, gor.Deaths)

	var battle models.Battle
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPatch, "/api/battles/"+itoa(b.ID), map[string]any{"notes": "rematch soon"}, &battle))
	assert.Equal(t, "rematch soon", battle.Notes)
	assert.Equal(t, 4, battle.Rounds)

	var all []models.Battle
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/battles", nil, &all))
	assert.Len(t, all, 1)

	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/battles", models.Battle{Name: "Friendly", Scenario: "Open"}, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodPost, "/api/battles", models.Battle{Name: "No scenario"}, nil))
	assert.Equal(t, http.StatusNoContent, call(t, srv, http.MethodDelete, "/api/battles/"+itoa(b.ID), nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/api/battles/"+itoa(b.ID)+"/stats", nil, nil))
}

func TestStrikeStats(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusNoContent, call(t, srv, http.MethodPost, "/api/stats/strike", stats.Strike{Damage: 7, Attacker: "Gor"}, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodPost, "/api/stats/strike", map[string]int{"damage": -1}, nil))

	var daily stats.Daily
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/stats/daily", nil, &daily))
	require.NotNil(t, daily.BiggestStrike)
	assert.Equal(t, "Gor", daily.BiggestStrike.Attacker)
}

func TestRoutingErrorsAndCORS(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/warbands", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(srv.URL + "/api/nothing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Not Found", body["error"])
	assert.EqualValues(t, 404, body["status"])

	assert.Equal(t, http.StatusMethodNotAllowed, call(t, srv, http.MethodPut, "/api/warbands", nil, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodPost, "/api/warbands", "not an object", nil))
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
