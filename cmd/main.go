package main

import (
	"context"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"dashboard-metrics-service/internal/config"
	"dashboard-metrics-service/internal/controller"
	"dashboard-metrics-service/internal/db"
	httpserver "dashboard-metrics-service/internal/http"
	"dashboard-metrics-service/internal/logger"
	"dashboard-metrics-service/internal/repository"
	"dashboard-metrics-service/internal/scheduler"
	"dashboard-metrics-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.LogLevel, cfg.AppMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.NewConnection(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	repo := repository.NewRecordRepository(conn)
	cache := service.NewAggregateCache(cfg.CacheMaxEntries)
	worker := service.NewBatchRecordWorker(repo, cfg.WorkerBufferSize, cfg.WorkerBatchSize, cfg.WorkerFlushEvery, cache.Invalidate)
	dashboardService := service.NewDashboardService(repo, worker, cache, service.Options{
		DeltaPrecision: cfg.DeltaPrecision,
		MaxRanges:      cfg.MaxRanges,
	})
	dashboardController := controller.NewDashboardController(dashboardService)

	if cfg.DigestSchedule != "" && len(cfg.DigestDatasets) > 0 {
		digest, err := scheduler.NewDigestScheduler(dashboardService, cfg.DigestSchedule, cfg.DigestDatasets, cfg.DigestMode)
		if err != nil {
			log.Fatal().Err(err).Msg("digest scheduler")
		}
		digest.Start()
		defer digest.Stop()
	}

	server := httpserver.NewServer(cfg, dashboardController)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().Str("addr", cfg.HTTPPort).Msg("starting server")
	if err := server.Listen(cfg.HTTPPort); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}

	worker.Shutdown()
}
