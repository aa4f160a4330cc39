package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/srejanashetty/efarm-backend/internal/cron"
	"github.com/srejanashetty/efarm-backend/internal/jobs"
	"github.com/srejanashetty/efarm-backend/pkg/config"
	"github.com/srejanashetty/efarm-backend/pkg/db"
	"github.com/srejanashetty/efarm-backend/pkg/instance"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/metrics"
	"github.com/srejanashetty/efarm-backend/pkg/migrate"
	"github.com/srejanashetty/efarm-backend/pkg/outbox"
	"github.com/srejanashetty/efarm-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		ErrorStack:  cfg.App.LogErrorStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	service, err := buildService(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
	})
	logg.Info(ctx, "starting cron worker")

	runErr := service.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if err := multierr.Combine(runErr, redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Service, error) {
	conn := dbClient.DB()

	jobSvc, err := jobs.NewService(jobs.NewRepository(conn), dbClient, outbox.NewService(outbox.NewRepository(conn), logg), logg)
	if err != nil {
		return nil, err
	}
	expiry, err := cron.NewJobExpiryJob(logg, jobSvc)
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(conn),
		Retention:  cfg.Outbox.Retention,
	})
	if err != nil {
		return nil, err
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		return nil, err
	}

	registry := cron.NewRegistry(expiry, retention)
	logg.Info(logg.WithField(context.Background(), "jobs", registry.Names()), "cron jobs registered")

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
}
