package table

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pefman/warband-tracker/internal/api"
	"github.com/pefman/warband-tracker/internal/game"
	"github.com/pefman/warband-tracker/internal/models"
	"github.com/pefman/warband-tracker/internal/roster"
	"github.com/pefman/warband-tracker/internal/stats"
)

// handlerFunc applies one command to a table. It runs with the table locked.
type handlerFunc func(ctx context.Context, t *Table, from *Peer, data json.RawMessage) error

const reportTimeout = 10 * time.Second

func commands() map[string]handlerFunc {
	return map[string]handlerFunc{
		"start":           startGame,
		"start_temp":      startTemp,
		"roll":            rollDice,
		"damage":          damage,
		"heal":            heal,
		"strike":          strike,
		"activate":        onFighter((*game.Session).ToggleActivation),
		"treasure":        onFighter((*game.Session).ToggleTreasure),
		"clear_status":    onFighter((*game.Session).ClearStatusEffects),
		"clear_abilities": onFighter((*game.Session).ClearAbilityDice),
		"status":          toggleStatus,
		"ability":         setAbility,
		"roll_ability":    rollAbility,
		"end_turn":        endTurn,
		"reset":           reset,
		"end":             endGame,
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

// fighterSel picks a fighter by template ID or, when ID is zero, by position.
type fighterSel struct {
	ID      int64 `json:"id,omitempty"`
	Warband int   `json:"warband"`
	Fighter int   `json:"fighter"`
}

func (f fighterSel) ref(s *game.Session) (game.FighterRef, error) {
	if f.ID != 0 {
		return s.Locate(f.ID)
	}
	return game.FighterRef{Warband: f.Warband, Fighter: f.Fighter}, nil
}

// ========================= Lifecycle =========================

type startReq struct {
	Owner      string               `json:"owner"`
	WarbandIDs []int64              `json:"warbandIds"`
	ShareCodes []string             `json:"shareCodes"`
	Temp       []roster.TempBuilder `json:"temp"`
}

// startGame builds the rosters in order: stored warbands, shared ones, then temporary ones.
func startGame(ctx context.Context, t *Table, _ *Peer, data json.RawMessage) error {
	var req startReq
	if err := decode(data, &req); err != nil {
		return err
	}
	if t.tracker.Started() {
		return game.ErrAlreadyStarted
	}

	var rosters []models.Roster
	if len(req.WarbandIDs) > 0 {
		if t.m.cfg.Rosters == nil {
			return ErrNoRosterSource
		}
		stored, err := roster.Select(ctx, t.m.cfg.Rosters, req.Owner, req.WarbandIDs)
		if err != nil {
			return err
		}
		rosters = append(rosters, stored...)
	}
	if len(req.ShareCodes) > 0 {
		pub, ok := t.m.cfg.Rosters.(PublicSource)
		if !ok {
			return ErrNoRosterSource
		}
		for _, code := range req.ShareCodes {
			r, err := pub.PublicRoster(ctx, strings.TrimSpace(code))
			if err != nil {
				return err
			}
			rosters = append(rosters, r)
		}
	}
	temp, built, err := t.buildTemp(req.Temp)
	if err != nil {
		return err
	}
	return t.start(append(rosters, built...), temp)
}

func startTemp(_ context.Context, t *Table, _ *Peer, data json.RawMessage) error {
	var req struct {
		Warbands []roster.TempBuilder `json:"warbands"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	if t.tracker.Started() {
		return game.ErrAlreadyStarted
	}
	temp, rosters, err := t.buildTemp(req.Warbands)
	if err != nil {
		return err
	}
	return t.start(rosters, temp)
}

// buildTemp builds into a fresh roster; the table keeps it only once the game starts.
func (t *Table) buildTemp(builders []roster.TempBuilder) (*roster.TempRoster, []models.Roster, error) {
	temp := roster.NewTempRoster()
	rosters := make([]models.Roster, 0, len(builders))
	for _, b := range builders {
		r, err := temp.Build(t.ID, b)
		if err != nil {
			return nil, nil, err
		}
		rosters = append(rosters, r)
	}
	return temp, rosters, nil
}

func (t *Table) start(rosters []models.Roster, temp *roster.TempRoster) error {
	s, err := t.tracker.Start(rosters)
	if err != nil {
		return err
	}
	t.temp = temp
	t.report = nil
	t.log.Info().Int("warbands", s.NumWarbands()).Msg("table: game started")
	return nil
}

func reset(_ context.Context, t *Table, _ *Peer, _ json.RawMessage) error {
	t.tracker.Reset()
	t.temp = roster.NewTempRoster()
	t.report = nil
	t.log.Info().Msg("table: game reset")
	return nil
}

// endGame closes the game, publishes its report and feeds the leaderboard and the reporter.
func endGame(_ context.Context, t *Table, _ *Peer, _ json.RawMessage) error {
	r, err := t.tracker.End()
	if err != nil {
		return err
	}
	t.report = &r
	t.temp = roster.NewTempRoster()
	t.broadcast(Message{Type: "report", Data: r})

	names := make([]string, len(r.Warbands))
	for i, w := range r.Warbands {
		names[i] = w.Name
	}
	g := stats.Game{Rounds: r.Rounds, Warbands: names, Table: t.Name, At: r.EndedAt}
	if len(r.Standings) > 1 {
		g.Winner = r.Warbands[r.Standings[0]].Name
	}
	t.m.cfg.Board.RecordGame(g)
	t.log.Info().Int("rounds", r.Rounds).Str("winner", g.Winner).Msg("table: game ended")

	if rec, ok := battleRecord(t.Name, r); ok && t.m.cfg.Reporter != nil {
		t.m.reports.Add(1)
		go func() {
			defer t.m.reports.Done()
			ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
			defer cancel()
			b, err := t.m.cfg.Reporter.RecordBattle(ctx, rec)
			if err != nil {
				t.log.Error().Err(err).Msg("table: battle report failed")
				return
			}
			t.log.Info().Int64("battle", b.ID).Msg("table: battle reported")
		}()
	}
	return nil
}

// battleRecord turns a report into a stored battle. Only stored warbands and
// fighters have records to update, so a game of temporary warbands has nothing to report.
func battleRecord(tableName string, r game.Report) (api.BattleRecord, bool) {
	var rec api.BattleRecord
	stored := false
	names := make([]string, len(r.Warbands))
	for i, w := range r.Warbands {
		names[i] = w.Name
		if w.WarbandID > 0 {
			stored = true
		}
		for _, f := range w.Fighters {
			if f.FighterID <= 0 {
				continue
			}
			rec.Stats = append(rec.Stats, models.BattleFighterStat{
				FighterID: f.FighterID,
				Kills:     f.Kills,
				WasKilled: f.Defeated,
			})
		}
	}
	if !stored {
		return rec, false
	}

	rec.Battle = models.Battle{
		Name:     strings.Join(names, " vs "),
		Scenario: "Tracked game",
		Date:     r.EndedAt,
		Rounds:   r.Rounds,
		Notes:    "Played at " + tableName,
	}
	if len(r.Standings) > 1 {
		win, lose := r.Warbands[r.Standings[0]], r.Warbands[r.Standings[len(r.Standings)-1]]
		if win.WarbandID > 0 {
			rec.Battle.WinnerID = win.WarbandID
		}
		if lose.WarbandID > 0 {
			rec.Battle.LoserID = lose.WarbandID
		}
		rec.Battle.WinnerScore = win.Treasures
		rec.Battle.LoserScore = lose.Treasures
	}
	return rec, true
}

// ========================= Turn =========================

func rollDice(_ context.Context, t *Table, _ *Peer, data json.RawMessage) error {
	var req struct {
		Warband *int `json:"warband"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	s, err := t.session()
	if err != nil {
		return err
	}
	w := s.ActiveWarbandIndex()
	if req.Warband != nil {
		w = *req.Warband
	}
	_, err = s.RollDice(w)
	return err
}

func endTurn(_ context.Context, t *Table, _ *Peer, _ json.RawMessage) error {
	s, err := t.session()
	if err != nil {
		return err
	}
	if s.EndTurn() {
		t.log.Debug().Int("round", s.BattleRound()).Msg("table: new battle round")
	}
	return nil
}

// ========================= Fighters =========================

func onFighter(apply func(*game.Session, game.FighterRef) error) handlerFunc {
	return func(_ context.Context, t *Table, _ *Peer, data json.RawMessage) error {
		var sel fighterSel
		if err := decode(data, &sel); err != nil {
			return err
		}
		s, err := t.session()
		if err != nil {
			return err
		}
		ref, err := sel.ref(s)
		if err != nil {
			return err
		}
		return apply(s, ref)
	}
}

type amountReq struct {
	fighterSel
	Amount int `json:"amount"`
}

func damage(_ context.Context, t *Table, _ *Peer, data json.RawMessage) error {
	var req amountReq
	if err := decode(data, &req); err != nil {
		return err
	}
	s, err := t.session()
	if err != nil {
		return err
	}
	ref, err := req.ref(s)
	if err != nil {
		return err
	}
	return s.ApplyDamage(ref, req.Amount)
}

func heal(_ context.Context, t *Table, _ *Peer, data json.RawMessage) error {
	var req amountReq
	if err := decode(data, &req); err != nil {
		return err
	}
	s, err := t.session()
	if err != nil {
		return err
	}
	ref, err := req.ref(s)
	if err != nil {
		return err
	}
	return s.Heal(ref, req.Amount)
}

func strike(_ context.Context, t *Table, _ *Peer, data json.RawMessage) error {
	var req struct {
		Attacker fighterSel `json:"attacker"`
		Target   fighterSel `json:"target"`
		Critical bool       `json:"critical"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	s, err := t.session()
	if err != nil {
		return err
	}
	att, err := req.Attacker.ref(s)
	if err != nil {
		return err
	}
	tgt, err := req.Target.ref(s)
	if err != nil {
		return err
	}
	dmg, err := s.Strike(att, tgt, req.Critical)
	if err != nil {
		return err
	}

	a, _ := s.Fighter(att)
	d, _ := s.Fighter(tgt)
	w, _ := s.Warband(att.Warband)
	t.m.cfg.Board.RecordStrike(stats.Strike{
		Damage:   dmg,
		Critical: req.Critical,
		Attacker: a.Template.Name,
		Target:   d.Template.Name,
		Warband:  w.Template.Name,
		Table:    t.Name,
	})
	return nil
}

func toggleStatus(_ context.Context, t *Table, _ *Peer, data json.RawMessage) error {
	var req struct {
		fighterSel
		Label string `json:"label"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	s, err := t.session()
	if err != nil {
		return err
	}
	ref, err := req.ref(s)
	if err != nil {
		return err
	}
	_, err = s.ToggleStatusEffect(ref, req.Label)
	return err
}

type abilityReq struct {
	fighterSel
	Ability string `json:"ability"`
	Value   int    `json:"value"`
}

func setAbility(_ context.Context, t *Table, _ *Peer, data json.RawMessage) error {
	var req abilityReq
	if err := decode(data, &req); err != nil {
		return err
	}
	s, err := t.session()
	if err != nil {
		return err
	}
	ref, err := req.ref(s)
	if err != nil {
		return err
	}
	return s.SetAbilityDie(ref, req.Ability, req.Value)
}

func rollAbility(_ context.Context, t *Table, _ *Peer, data json.RawMessage) error {
	var req abilityReq
	if err := decode(data, &req); err != nil {
		return err
	}
	s, err := t.session()
	if err != nil {
		return err
	}
	ref, err := req.ref(s)
	if err != nil {
		return err
	}
	_, err = s.RollAbilityDie(ref, req.Ability)
	return err
}
