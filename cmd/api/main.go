package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brokerage-backend/internal/config"
	"brokerage-backend/internal/interfaces/router"
	"brokerage-backend/internal/scheduler"

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

	app, svc, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create app")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := svc.Rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	cancel()
	sqlDB, err := svc.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	log.Info().Msg("Database and Redis connected")

	sched := scheduler.New(log.Logger)
	tick := &scheduler.PriceTickJob{Simulator: svc.Simulator, Feed: svc.Feed}
	if err := sched.AddJob(cfg.PriceTickSchedule, tick); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.PriceTickSchedule).Msg("Invalid price tick schedule")
	}
	if err := sched.AddJob(cfg.MaturitySchedule, &scheduler.MaturityJob{Service: svc.Investments}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.MaturitySchedule).Msg("Invalid maturity schedule")
	}
	// seed the shared feed before the first request
	if err := sched.RunNow(tick); err != nil {
		log.Warn().Err(err).Msg("Initial price publish failed")
	}
	sched.Start()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server running")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	sched.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	_ = svc.Rdb.Close()
}
