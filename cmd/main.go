package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/saeidalz13/battleship-solo/api"
	"github.com/saeidalz13/battleship-solo/db"
	"github.com/saeidalz13/battleship-solo/db/sqlc"
	"github.com/saeidalz13/battleship-solo/internal/config"
	mb "github.com/saeidalz13/battleship-solo/models/battleship"
	mc "github.com/saeidalz13/battleship-solo/models/connection"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)
	if cfg.Stage == config.StageDev {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	opts := []api.Option{
		api.WithPort(cfg.Port),
		api.WithStage(cfg.Stage),
		api.WithOpponentDelay(cfg.OpponentDelay),
	}

	if cfg.AnalyticsEnabled() {
		psql := db.MustConnectToDb(cfg.DatabaseUrl, cfg.MigrationDir)
		defer psql.Close()

		dbManager := sqlc.NewDbManager(psql, api.ServerIpNet())
		dbManager.Analytics.LogSummary(context.Background())
		opts = append(opts, api.WithAnalytics(dbManager.Analytics))
	} else {
		log.Info().Msg("DATABASE_URL not set; analytics disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameManager := mb.NewBattleshipGameManager()
	sessionManager := mc.NewBattleshipSessionManager()
	go gameManager.CleanupPeriodically(ctx.Done())
	go sessionManager.CleanupPeriodically(ctx.Done())

	server, err := api.NewServer(sessionManager, gameManager, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server exited")
	}
}
