package main

import (
	"net/http"

	"github.com/pefman/warband-tracker/internal/stats"
)

// GET /api/stats/daily
func (s *server) getDaily(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.board.Today())
}

// POST /api/stats/strike
// Body: { damage, critical, attacker, target, warband }
func (s *server) postStrike(w http.ResponseWriter, r *http.Request) {
	var st stats.Strike
	if !decodeBody(w, r, &st) {
		return
	}
	if st.Damage < 0 {
		writeError(w, http.StatusBadRequest, "damage must not be negative")
		return
	}
	s.board.RecordStrike(st)
	w.WriteHeader(http.StatusNoContent)
}
