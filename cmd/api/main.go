package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/motorline/dealership-backend/api/routes"
	"github.com/motorline/dealership-backend/internal/inventory"
	"github.com/motorline/dealership-backend/internal/orders"
	"github.com/motorline/dealership-backend/internal/pricing"
	"github.com/motorline/dealership-backend/internal/saga"
	"github.com/motorline/dealership-backend/internal/saga/remote"
	"github.com/motorline/dealership-backend/pkg/config"
	"github.com/motorline/dealership-backend/pkg/db"
	"github.com/motorline/dealership-backend/pkg/events"
	"github.com/motorline/dealership-backend/pkg/logger"
	"github.com/motorline/dealership-backend/pkg/metrics"
	"github.com/motorline/dealership-backend/pkg/migrate"
	"github.com/motorline/dealership-backend/pkg/redis"
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

	ordersSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	inventorySvc, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	calc, err := pricing.NewCalculator(pricing.EvenIDPolicy{})
	if err != nil {
		logg.Error(context.Background(), "failed to create price calculator", err)
		os.Exit(1)
	}
	pricingSvc, err := pricing.NewService(pricing.NewRepository(dbClient.DB()), dbClient, calc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	prices, err := saga.NewInventoryBasePrice(inventorySvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create base price source", err)
		os.Exit(1)
	}

	inventoryCollab, pricingCollab, err := buildCollaborators(cfg, inventorySvc, pricingSvc, prices)
	if err != nil {
		logg.Error(context.Background(), "failed to wire saga collaborators", err)
		os.Exit(1)
	}

	var publisher events.Publisher
	if cfg.GCP.ProjectID != "" {
		pub, err := events.NewPubSubPublisher(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create pubsub publisher", err)
			os.Exit(1)
		}
		defer func() {
			if err := pub.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub publisher", err)
			}
		}()
		publisher = pub
	} else {
		publisher = events.NewLogPublisher(logg)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sagaMetrics := metrics.NewSagaMetrics(registry)

	orchestrator, err := saga.NewOrchestrator(
		ordersSvc,
		inventoryCollab,
		pricingCollab,
		publisher,
		redis.NewOrderLock(redisClient),
		sagaMetrics,
		cfg.Saga,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create saga orchestrator", err)
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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient,
			orchestrator, ordersSvc, inventorySvc, pricingSvc, prices,
			registry,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildCollaborators wires the saga against in-process services unless base
// URLs point at split inventory and pricing deployments.
func buildCollaborators(
	cfg *config.Config,
	inventorySvc inventory.Service,
	pricingSvc pricing.Service,
	prices saga.BasePriceSource,
) (saga.InventoryCollaborator, saga.PricingCollaborator, error) {
	var (
		inv saga.InventoryCollaborator
		prc saga.PricingCollaborator
		err error
	)

	if cfg.Collaborators.InventoryBaseURL != "" {
		inv, err = remote.NewInventoryClient(cfg.Collaborators.InventoryBaseURL)
	} else {
		inv, err = saga.NewLocalInventory(inventorySvc)
	}
	if err != nil {
		return nil, nil, err
	}

	if cfg.Collaborators.PricingBaseURL != "" {
		prc, err = remote.NewPricingClient(cfg.Collaborators.PricingBaseURL)
	} else {
		prc, err = saga.NewLocalPricing(pricingSvc, prices)
	}
	if err != nil {
		return nil, nil, err
	}

	return inv, prc, nil
}
