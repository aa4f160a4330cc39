package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/srejanashetty/efarm-backend/api"
	"github.com/srejanashetty/efarm-backend/api/routes"
	"github.com/srejanashetty/efarm-backend/internal/analytics"
	"github.com/srejanashetty/efarm-backend/internal/articles"
	"github.com/srejanashetty/efarm-backend/internal/jobs"
	"github.com/srejanashetty/efarm-backend/internal/orders"
	"github.com/srejanashetty/efarm-backend/internal/products"
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
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	services, err := buildServices(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	var httpMetrics *metrics.HTTPMetrics
	if cfg.FeatureFlags.Metrics {
		httpMetrics = metrics.NewHTTPMetrics()
	}

	server := api.NewServer(cfg, routes.NewRouter(cfg, logg, routes.Infra{
		DB:      dbClient,
		Redis:   redisClient,
		Metrics: httpMetrics,
	}, services))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     server.Addr,
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	); err != nil {
		logg.Error(ctx, "error during shutdown", err)
		exitCode = 1
	}

	logg.Info(ctx, "api server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Services, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	catalog := products.NewRepository(conn)

	pricing, err := orders.NewPricing(cfg.Marketplace)
	if err != nil {
		return routes.Services{}, err
	}

	productSvc, err := products.NewService(catalog, dbClient, emitter)
	if err != nil {
		return routes.Services{}, err
	}
	orderSvc, err := orders.NewService(orders.NewRepository(conn), dbClient, products.NewInventory(catalog), emitter, pricing, cfg.Marketplace.MaxOrderItems, logg)
	if err != nil {
		return routes.Services{}, err
	}
	jobSvc, err := jobs.NewService(jobs.NewRepository(conn), dbClient, emitter, logg)
	if err != nil {
		return routes.Services{}, err
	}

	articleSvc, err := articles.NewService(articles.NewRepository(conn), dbClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	var cache analytics.Cache
	if cfg.FeatureFlags.AnalyticsCache {
		cache = redisClient
	}
	analyticsSvc, err := analytics.NewService(analytics.NewRepository(conn), cache, cfg.Redis.AnalyticsTTL, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Orders:    orderSvc,
		Jobs:      jobSvc,
		Products:  productSvc,
		Analytics: analyticsSvc,
		Articles:  articleSvc,
	}, nil
}
