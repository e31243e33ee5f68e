package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/platevine/platevine-backend/internal/accounts"
	"github.com/platevine/platevine-backend/internal/cleanup"
	"github.com/platevine/platevine-backend/internal/cron"
	"github.com/platevine/platevine-backend/internal/orders"
	"github.com/platevine/platevine-backend/internal/payments"
	"github.com/platevine/platevine-backend/internal/slots"
	"github.com/platevine/platevine-backend/internal/stock"
	"github.com/platevine/platevine-backend/internal/stores"
	"github.com/platevine/platevine-backend/pkg/config"
	"github.com/platevine/platevine-backend/pkg/db"
	"github.com/platevine/platevine-backend/pkg/logger"
	"github.com/platevine/platevine-backend/pkg/metrics"
	"github.com/platevine/platevine-backend/pkg/migrate"
	"github.com/platevine/platevine-backend/pkg/outbox"
	"github.com/platevine/platevine-backend/pkg/redis"
	"github.com/platevine/platevine-backend/pkg/stripe"
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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	storesRepo := stores.NewRepository(dbClient.DB())
	slotsRepo := slots.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	accountsRepo := accounts.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     ordersRepo,
		Payments: paymentsRepo,
		Stores:   storesRepo,
		Tx:       dbClient,
		Outbox:   outboxService,
		Ledger:   stock.NewLedger(),
		Notifier: stock.NewRedisNotifier(redisClient, logg),
		Gateway:  payments.NewStripeGateway(stripeClient),
		Logger:   logg,
		Config:   cfg.Orders,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	generator, err := slots.NewGenerator(slots.GeneratorParams{
		Repo:     slotsRepo,
		Stores:   storesRepo,
		Tx:       dbClient,
		Outbox:   outboxService,
		Logger:   logg,
		Location: cfg.App.Location(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create slot generator", err)
		os.Exit(1)
	}

	sweeper, err := cleanup.NewSweeper(cleanup.SweeperParams{
		Orders:   ordersRepo,
		Service:  ordersService,
		Accounts: accountsRepo,
		Logger:   logg,
		Config:   cfg.Orders,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweeper", err)
		os.Exit(1)
	}

	slotJob, err := cron.NewSlotGenerationJob(logg, generator)
	if err != nil {
		logg.Error(context.Background(), "failed to create slot generation job", err)
		os.Exit(1)
	}
	sweepJob, err := cron.NewSweepJob(logg, sweeper)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(
		cron.Entry{Job: slotJob, Schedule: cron.DailyAtMidnight{Location: cfg.App.Location()}},
		cron.Entry{Job: sweepJob, Schedule: cron.Every(cfg.Cron.SweepInterval)},
	)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Locks: func(jobName string) (cron.Lock, error) {
			return cron.NewRedisLock(redisClient, redis.Key("cron", "lock", jobName), cfg.Cron.LockTTL)
		},
		Metrics: metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	// Backfill any slots the worker slept through before the schedules take over.
	if err := generator.InitializeSlots(ctx); err != nil {
		logg.Error(ctx, "initial slot generation failed", err)
	}

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
