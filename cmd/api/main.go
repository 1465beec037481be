package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/marketdesk-backend/api/routes"
	"github.com/angelmondragon/marketdesk-backend/internal/earnings"
	"github.com/angelmondragon/marketdesk-backend/internal/orders"
	"github.com/angelmondragon/marketdesk-backend/internal/payouts"
	"github.com/angelmondragon/marketdesk-backend/pkg/config"
	"github.com/angelmondragon/marketdesk-backend/pkg/db"
	"github.com/angelmondragon/marketdesk-backend/pkg/logger"
	"github.com/angelmondragon/marketdesk-backend/pkg/metrics"
	"github.com/angelmondragon/marketdesk-backend/pkg/migrate"
	"github.com/angelmondragon/marketdesk-backend/pkg/outbox"
	"github.com/angelmondragon/marketdesk-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing stores", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, outboxSvc, metrics.NewOrderMetrics(registry))
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	earningsSvc, err := earnings.NewService(earnings.NewRepository(dbClient.DB()), cfg.Earnings)
	if err != nil {
		logg.Error(ctx, "failed to create earnings service", err)
		os.Exit(1)
	}

	locker, err := newSellerLocker(cfg.Payouts, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create payout locker", err)
		os.Exit(1)
	}

	payoutsSvc, err := payouts.NewService(payouts.ServiceParams{
		Repo:     payouts.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Outbox:   outboxSvc,
		Earnings: earningsSvc,
		Locker:   locker,
		Metrics:  metrics.NewPayoutMetrics(registry),
		Config:   cfg.Payouts,
	})
	if err != nil {
		logg.Error(ctx, "failed to create payouts service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"lock_backend": cfg.Payouts.LockBackend,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, metrics.NewHTTPMetrics(registry), routes.Services{
			Orders:   ordersSvc,
			Earnings: earningsSvc,
			Payouts:  payoutsSvc,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}

func newSellerLocker(cfg config.PayoutsConfig, redisClient *redis.Client) (payouts.SellerLocker, error) {
	if cfg.UsesRedisLock() {
		locker, err := payouts.NewRedisLocker(redisClient, cfg.LockTTL, cfg.LockWait)
		if err != nil {
			return nil, err
		}
		return locker, nil
	}
	return payouts.NewLocalLocker(), nil
}
