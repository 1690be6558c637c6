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

	"github.com/pefman/warband-tracker/internal/api"
	"github.com/pefman/warband-tracker/internal/config"
	"github.com/pefman/warband-tracker/internal/game"
	"github.com/pefman/warband-tracker/internal/logging"
	"github.com/pefman/warband-tracker/internal/table"
)

// Build metadata injected via -ldflags at build time
var (
	buildVersion = "dev"
	buildTime    = ""
)

func main() {
	configDir := flag.String("config", ".", "directory holding "+config.FileName)
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		l := logging.NewConsole("info", "game")
		l.Fatal().Err(err).Msg("config: load failed")
	}
	cfg := config.Current()
	log := logging.NewConsole(cfg.LogLevel, "game")

	client := api.NewClient(cfg.Game.DataAPIBase, api.WithTTL(cfg.API.CacheTTL))
	tc := table.Config{Rosters: client, Log: log}
	if cfg.Game.ReportBattles {
		tc.Reporter = client
	}
	if cfg.Game.StrictAbilities {
		tc.Options = append(tc.Options, game.WithStrictAbilities())
	}
	tables, err := table.NewManager(tc)
	if err != nil {
		log.Fatal().Err(err).Msg("table: manager setup failed")
	}

	srv := &http.Server{
		Addr:              cfg.Game.ListenAddr,
		Handler:           routes(tables, log),
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

	log.Info().
		Str("addr", cfg.Game.ListenAddr).
		Str("data_api", cfg.Game.DataAPIBase).
		Bool("strict_abilities", cfg.Game.StrictAbilities).
		Msg("warband tracker game server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http: server failed")
	}
	// let in-flight battle reports reach the roster api
	tables.Wait()
}
