package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pefman/warband-tracker/internal/models"
	"github.com/pefman/warband-tracker/internal/roster"
	"github.com/pefman/warband-tracker/internal/stats"
	"github.com/rs/zerolog"
)

type server struct {
	store *roster.Store
	board *stats.Board
	log   zerolog.Logger
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/warbands", s.listWarbands).Methods(http.MethodGet)
	r.HandleFunc("/api/warbands", s.createWarband).Methods(http.MethodPost)
	r.HandleFunc("/api/warbands/{id:[0-9]+}", s.getWarband).Methods(http.MethodGet)
	r.HandleFunc("/api/warbands/{id:[0-9]+}", s.updateWarband).Methods(http.MethodPatch)
	r.HandleFunc("/api/warbands/{id:[0-9]+}", s.deleteWarband).Methods(http.MethodDelete)
	r.HandleFunc("/api/warbands/{id:[0-9]+}/copy", s.copyWarband).Methods(http.MethodPost)
	r.HandleFunc("/api/warbands/{id:[0-9]+}/share", s.shareWarband).Methods(http.MethodPost)

	r.HandleFunc("/api/public/warbands", s.listPublic).Methods(http.MethodGet)
	r.HandleFunc("/api/public/warbands/{code}", s.publicRoster).Methods(http.MethodGet)

	r.HandleFunc("/api/fighters", s.listFighters).Methods(http.MethodGet)
	r.HandleFunc("/api/fighters", s.createFighter).Methods(http.MethodPost)
	r.HandleFunc("/api/fighters/{id:[0-9]+}", s.getFighter).Methods(http.MethodGet)
	r.HandleFunc("/api/fighters/{id:[0-9]+}", s.updateFighter).Methods(http.MethodPatch)
	r.HandleFunc("/api/fighters/{id:[0-9]+}", s.deleteFighter).Methods(http.MethodDelete)

	r.HandleFunc("/api/battles", s.listBattles).Methods(http.MethodGet)
	r.HandleFunc("/api/battles", s.createBattle).Methods(http.MethodPost)
	r.HandleFunc("/api/battles/record", s.recordBattle).Methods(http.MethodPost)
	r.HandleFunc("/api/battles/{id:[0-9]+}", s.getBattle).Methods(http.MethodGet)
	r.HandleFunc("/api/battles/{id:[0-9]+}", s.updateBattle).Methods(http.MethodPatch)
	r.HandleFunc("/api/battles/{id:[0-9]+}", s.deleteBattle).Methods(http.MethodDelete)
	r.HandleFunc("/api/battles/{id:[0-9]+}/stats", s.battleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/battle-fighter-stats", s.addBattleFighterStat).Methods(http.MethodPost)

	r.HandleFunc("/api/stats/daily", s.getDaily).Methods(http.MethodGet)
	r.HandleFunc("/api/stats/strike", s.postStrike).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, r.Method+" not allowed")
	})
	return withCORS(r)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
		"status":  code,
	})
}

// fail maps store errors onto HTTP status codes.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, roster.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, roster.ErrNotShared):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("api: request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Owner")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func muxVar(r *http.Request, name string) string { return mux.Vars(r)[name] }

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(muxVar(r, "id"), 10, 64)
	return id
}

// owner is the opaque roster owner: ?owner= wins over the X-Owner header.
func owner(r *http.Request) string {
	if o := r.URL.Query().Get("owner"); o != "" {
		return o
	}
	return r.Header.Get("X-Owner")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}
