// Command sweep runs one investment maturity pass and exits. It is meant for
// external batch runners (cron, serverless schedulers) where the API process
// does not host the scheduler.
package main

import (
	"context"
	"os"
	"time"

	"brokerage-backend/internal/application/investments"
	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/config"
	"brokerage-backend/internal/infrastructure/database"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("Database URL is not configured")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	svc := &investments.Service{Store: &ledger.Store{DB: db}}
	res, err := svc.MatureDue(ctx, svc.Clock())
	if err != nil {
		log.Fatal().Err(err).Msg("Maturity sweep failed")
	}
	log.Info().Int("due", res.Due).Int("matured", res.Matured).Int("failed", res.Failed).
		Str("paid_out", res.PaidOut.StringFixed(2)).Msg("Maturity sweep finished")
	if res.Failed > 0 {
		os.Exit(1)
	}
}
