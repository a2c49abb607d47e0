// Package main is the entry point for the basket analysis server.
//
// Startup order: configuration, logging, databases, services, background
// jobs, then the HTTP server. SIGINT or SIGTERM triggers a graceful
// shutdown in reverse order.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/basket/internal/config"
	"github.com/aristath/basket/internal/di"
	"github.com/aristath/basket/internal/scheduler"
	"github.com/aristath/basket/internal/server"
	"github.com/aristath/basket/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
		File:   cfg.LogFile,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting basket")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(log)

	container, jobs, err := di.Wire(ctx, cfg, sched, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close databases")
		}
	}()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		HistoryDB: container.HistoryDB,
		CacheDB:   container.CacheDB,
		Analysis:  container.AnalysisService,
		Prices:    container.PriceService,
		Reports:   container.ReportRepo,
		Archiver:  container.ReportArchiver,
		Events:    container.EventManager,
		Metrics:   container.Metrics,
		Jobs:      jobs.All(),
		Scheduler: sched,
	})

	sched.Start()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Waits for running jobs
	sched.Stop()

	log.Info().Msg("Server stopped")
}
