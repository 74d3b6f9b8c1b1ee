package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leadpilot/backend/internal/config"
	"github.com/leadpilot/backend/internal/db"
	httpapi "github.com/leadpilot/backend/internal/http"
	"github.com/leadpilot/backend/internal/models"
	"github.com/leadpilot/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "persona-backend").Logger()

	if cfg.AutoMigrate {
		if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	reclassifier := service.NewReclassifier(ctx, store, logger)

	var scheduler *cron.Cron
	if cfg.ReclassifySchedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.ReclassifySchedule, func() {
			sweepCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()
			active, err := store.HasActiveJob(sweepCtx)
			if err != nil {
				logger.Error().Err(err).Msg("scheduled sweep check failed")
				return
			}
			if active {
				logger.Info().Msg("scheduled sweep skipped, a job is already running")
				return
			}
			job, err := reclassifier.CreateJob(sweepCtx, models.JobTypeUnclassified, false, "scheduler")
			if err != nil {
				logger.Error().Err(err).Msg("scheduled sweep failed to start")
				return
			}
			logger.Info().Str("job_id", job.ID).Msg("scheduled sweep started")
		})
		if err != nil {
			logger.Fatal().Err(err).Str("schedule", cfg.ReclassifySchedule).Msg("invalid reclassify schedule")
		}
		scheduler.Start()
		logger.Info().Str("schedule", cfg.ReclassifySchedule).Msg("reclassify scheduler started")
	}

	router := httpapi.Router(cfg, store, reclassifier, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)

	stop()
	reclassifier.Wait()
	logger.Info().Msg("server stopped")
}
