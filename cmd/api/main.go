package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pefman/warband-tracker/internal/config"
	"github.com/pefman/warband-tracker/internal/database"
	"github.com/pefman/warband-tracker/internal/logging"
	"github.com/pefman/warband-tracker/internal/roster"
	"github.com/pefman/warband-tracker/internal/stats"
)

func main() {
	configDir := flag.String("config", ".", "directory holding "+config.FileName)
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		l := logging.NewConsole("info", "api")
		l.Fatal().Err(err).Msg("config: load failed")
	}
	cfg := config.Current()
	log := logging.NewConsole(cfg.LogLevel, "api")

	db, err := database.Open(cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database: open failed")
	}

	s := &server{
		store: roster.NewStore(db, log),
		board: stats.NewBoard(),
		log:   log,
	}
	srv := &http.Server{
		Addr:              cfg.API.ListenAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.API.ListenAddr).Str("db", cfg.DB.Driver).Msg("warband roster api listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http: server failed")
	}
}
