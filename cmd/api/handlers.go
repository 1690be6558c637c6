package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pefman/warband-tracker/internal/api"
	"github.com/pefman/warband-tracker/internal/models"
	"github.com/pefman/warband-tracker/internal/stats"
)

// ========================= Warbands =========================

func (s *server) listWarbands(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListWarbands(r.Context(), owner(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) createWarband(w http.ResponseWriter, r *http.Request) {
	var wb models.Warband
	if !decodeBody(w, r, &wb) {
		return
	}
	if wb.Owner == "" {
		wb.Owner = owner(r)
	}
	if err := s.store.CreateWarband(r.Context(), &wb); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wb)
}

func (s *server) getWarband(w http.ResponseWriter, r *http.Request) {
	wb, err := s.store.GetWarband(r.Context(), pathID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wb)
}

// updateWarband applies the body's fields over the stored warband.
func (s *server) updateWarband(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	wb, err := s.store.GetWarband(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !decodeBody(w, r, &wb) {
		return
	}
	wb.ID = id
	if err := s.store.UpdateWarband(r.Context(), &wb); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wb)
}

func (s *server) deleteWarband(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteWarband(r.Context(), pathID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) copyWarband(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.CopyWarband(r.Context(), pathID(r), owner(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *server) shareWarband(w http.ResponseWriter, r *http.Request) {
	wb, err := s.store.ShareWarband(r.Context(), pathID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wb)
}

func (s *server) listPublic(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListPublic(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) publicRoster(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.PublicRoster(r.Context(), muxVar(r, "code"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ========================= Fighters =========================

func (s *server) listFighters(w http.ResponseWriter, r *http.Request) {
	var warbandID int64
	if v := r.URL.Query().Get("warbandId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "warbandId must be a number")
			return
		}
		warbandID = id
	}
	list, err := s.store.ListFighters(r.Context(), warbandID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) createFighter(w http.ResponseWriter, r *http.Request) {
	var f models.Fighter
	if !decodeBody(w, r, &f) {
		return
	}
	if err := s.store.CreateFighter(r.Context(), &f); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *server) getFighter(w http.ResponseWriter, r *http.Request) {
	f, err := s.store.GetFighter(r.Context(), pathID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *server) updateFighter(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	f, err := s.store.GetFighter(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !decodeBody(w, r, &f) {
		return
	}
	f.ID = id
	if err := s.store.UpdateFighter(r.Context(), &f); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *server) deleteFighter(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteFighter(r.Context(), pathID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ========================= Battles =========================

func (s *server) listBattles(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListBattles(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) createBattle(w http.ResponseWriter, r *http.Request) {
	var b models.Battle
	if !decodeBody(w, r, &b) {
		return
	}
	if err := s.store.CreateBattle(r.Context(), &b); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// recordBattle stores a finished game with its fighter stats and counts it on the daily board.
func (s *server) recordBattle(w http.ResponseWriter, r *http.Request) {
	var rec api.BattleRecord
	if !decodeBody(w, r, &rec) {
		return
	}
	if err := s.store.RecordBattle(r.Context(), &rec.Battle, rec.Stats); err != nil {
		s.fail(w, r, err)
		return
	}
	s.board.RecordGame(stats.Game{Rounds: rec.Battle.Rounds, Warbands: strings.Split(rec.Battle.Name, " vs "), At: rec.Battle.Date})
	writeJSON(w, http.StatusCreated, rec.Battle)
}

func (s *server) getBattle(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.GetBattle(r.Context(), pathID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *server) updateBattle(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	b, err := s.store.GetBattle(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !decodeBody(w, r, &b) {
		return
	}
	b.ID = id
	if err := s.store.UpdateBattle(r.Context(), &b); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *server) deleteBattle(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBattle(r.Context(), pathID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) battleStats(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if _, err := s.store.GetBattle(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	list, err := s.store.BattleStats(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) addBattleFighterStat(w http.ResponseWriter, r *http.Request) {
	var st models.BattleFighterStat
	if !decodeBody(w, r, &st) {
		return
	}
	if err := s.store.AddBattleFighterStat(r.Context(), &st); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}
