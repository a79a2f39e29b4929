package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"accountdesk/internal/cache"
	"accountdesk/internal/config"
	"accountdesk/internal/database"
	"accountdesk/internal/events"
	"accountdesk/internal/handlers"
	"accountdesk/internal/jobs"
	"accountdesk/internal/log"
	"accountdesk/internal/ratelimit"
	"accountdesk/internal/server"
	"accountdesk/internal/storage"
	"accountdesk/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Debug().Str("config", cfg.String()).Msg("configuration loaded")

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, cfg.Environment)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.Migrate(ctx, dbPool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	var objectStore *storage.ObjectStore
	if cfg.Storage.Enabled() {
		objectStore, err = storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure avatar bucket failed")
		}
	}

	var limiter ratelimit.Limiter
	var trimmer jobs.StreamTrimmer
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		trimmer = events.NewStream(redisClient, cfg.Events)
	} else {
		logger.Warn().Msg("redis not configured, using in-process rate limiting and no auth events")
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handlerSet := handlers.NewHandlerSet(logger, cfg, dbPool, redisClient, objectStore)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet, limiter, registry)

	scheduler := jobs.NewScheduler(trimmer, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, cfg.HTTP, httpServer, handlerSet, scheduler, dbPool, redisClient, shutdownTracing)
}

func waitForShutdown(
	logger zerolog.Logger,
	httpCfg config.HTTPConfig,
	srv *server.HTTPServer,
	handlerSet handlers.HandlerSet,
	scheduler *jobs.Scheduler,
	db *pgxpool.Pool,
	redisClient *redis.Client,
	shutdownTracing tracing.ShutdownFunc,
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	// Fail readiness first so the load balancer stops routing new requests.
	handlerSet.SetReady(false)
	if httpCfg.DrainDelay > 0 {
		time.Sleep(httpCfg.DrainDelay)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("scheduled job still running at shutdown")
	}

	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}

	logger.Info().Msg("server exited cleanly")
}
