package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/platevine/platevine-backend/api/routes"
	"github.com/platevine/platevine-backend/internal/orders"
	"github.com/platevine/platevine-backend/internal/payments"
	"github.com/platevine/platevine-backend/internal/slots"
	"github.com/platevine/platevine-backend/internal/stock"
	"github.com/platevine/platevine-backend/internal/stores"
	"github.com/platevine/platevine-backend/pkg/config"
	"github.com/platevine/platevine-backend/pkg/db"
	"github.com/platevine/platevine-backend/pkg/logger"
	"github.com/platevine/platevine-backend/pkg/migrate"
	"github.com/platevine/platevine-backend/pkg/outbox"
	"github.com/platevine/platevine-backend/pkg/redis"
	"github.com/platevine/platevine-backend/pkg/stripe"
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

	slotsService, err := slots.NewService(slotsRepo, storesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create slots service", err)
		os.Exit(1)
	}

	availability, err := slots.NewAvailabilityService(slotsRepo, storesRepo, cfg.App.Location(), nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, availability, slotsService, ordersService, stripeClient),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
