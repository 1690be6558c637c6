package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pefman/warband-tracker/internal/table"
	"github.com/rs/zerolog"
)

func routes(tables *table.Manager, log zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", tables.ServeWS)

	r.HandleFunc("/tables", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tables.List())
	}).Methods(http.MethodGet)

	r.HandleFunc("/tables", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
				return
			}
		}
		t := tables.Create(req.Name)
		writeJSON(w, http.StatusCreated, t.Snapshot())
	}).Methods(http.MethodPost)

	r.HandleFunc("/tables/{id}", func(w http.ResponseWriter, r *http.Request) {
		t, ok := tables.Get(mux.Vars(r)["id"])
		if !ok {
			writeError(w, http.StatusNotFound, "table not found")
			return
		}
		writeJSON(w, http.StatusOK, t.Snapshot())
	}).Methods(http.MethodGet)

	r.HandleFunc("/tables/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !tables.Remove(mux.Vars(r)["id"]) {
			writeError(w, http.StatusNotFound, "table not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	r.HandleFunc("/leaderboard/daily", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tables.Board().Today())
	}).Methods(http.MethodGet)

	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": buildVersion,
			"time":    buildTime,
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/debug", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
		msg := strings.TrimSpace(string(b))
		if msg == "" {
			msg = "(empty client debug)"
		}
		log.Info().Str("from", r.RemoteAddr).Msgf("client-debug: %s", msg)
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
		"status":  code,
	})
}
