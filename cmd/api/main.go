package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/avelarde/shopfront-backend/api/routes"
	"github.com/avelarde/shopfront-backend/internal/checkout"
	"github.com/avelarde/shopfront-backend/internal/inventory"
	"github.com/avelarde/shopfront-backend/internal/notifications"
	"github.com/avelarde/shopfront-backend/internal/orders"
	"github.com/avelarde/shopfront-backend/internal/products"
	"github.com/avelarde/shopfront-backend/internal/settings"
	"github.com/avelarde/shopfront-backend/internal/settlement"
	"github.com/avelarde/shopfront-backend/pkg/config"
	"github.com/avelarde/shopfront-backend/pkg/db"
	"github.com/avelarde/shopfront-backend/pkg/logger"
	"github.com/avelarde/shopfront-backend/pkg/metrics"
	"github.com/avelarde/shopfront-backend/pkg/migrate"
	"github.com/avelarde/shopfront-backend/pkg/secretbox"
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

	box, err := secretbox.New(cfg.Secrets.EffectiveKey())
	if err != nil {
		logg.Error(context.Background(), "failed to initialise credential cipher", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	settingsService := settings.NewService(
		settings.NewRepository(dbClient.DB()),
		box,
		cfg.Stripe,
		cfg.PayPal,
		logg,
	)
	notifier := notifications.NewLogNotifier(logg)
	checkoutService := checkout.NewService(
		checkout.NewRepository(dbClient.DB()),
		dbClient,
		settingsService,
		notifier,
		logg,
	)
	deductor := inventory.NewDeductor(inventory.NewRepository(dbClient.DB()), logg)

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		Repo:              settlement.NewRepository(dbClient.DB()),
		TransactionRunner: dbClient,
		Settings:          settingsService,
		Gateways:          settlement.NewGatewayFactory(),
		Deductor:          deductor,
		Metrics:           settlementMetrics,
		Notifier:          notifier,
		Logger:            logg,
		PublicBaseURL:     cfg.Shop.PublicBaseURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	svcs := routes.Services{
		Checkout:   checkoutService,
		Settlement: settlementService,
		Products:   products.NewService(products.NewRepository(dbClient.DB()), dbClient, logg),
		Orders:     orders.NewService(orders.NewRepository(dbClient.DB()), logg),
		Settings:   settingsService,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, registry, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
