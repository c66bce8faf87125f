package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/motorline/dealership-backend/api/controllers"
	inventorycontrollers "github.com/motorline/dealership-backend/api/controllers/inventory"
	ordercontrollers "github.com/motorline/dealership-backend/api/controllers/orders"
	pricingcontrollers "github.com/motorline/dealership-backend/api/controllers/pricing"
	"github.com/motorline/dealership-backend/api/middleware"
	"github.com/motorline/dealership-backend/internal/inventory"
	"github.com/motorline/dealership-backend/internal/orders"
	"github.com/motorline/dealership-backend/internal/pricing"
	"github.com/motorline/dealership-backend/internal/saga"
	"github.com/motorline/dealership-backend/pkg/config"
	"github.com/motorline/dealership-backend/pkg/db"
	"github.com/motorline/dealership-backend/pkg/logger"
	"github.com/motorline/dealership-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	orchestrator *saga.Orchestrator,
	ordersSvc orders.Service,
	inventorySvc inventory.Service,
	pricingSvc pricing.Service,
	prices saga.BasePriceSource,
	metricsRegistry prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", ordercontrollers.Create(orchestrator, logg))
		r.Get("/", ordercontrollers.List(ordersSvc, logg))
		r.Route("/{orderID}", func(r chi.Router) {
			r.Get("/", ordercontrollers.Get(ordersSvc, logg))
			r.Patch("/", ordercontrollers.Update(ordersSvc, logg))
			r.Get("/history", ordercontrollers.History(ordersSvc, logg))
			r.Post("/confirm", ordercontrollers.Confirm(orchestrator, logg))
			r.Post("/cancel", ordercontrollers.Cancel(orchestrator, logg))
			r.Post("/complete", ordercontrollers.Complete(orchestrator, logg))
			r.Patch("/payment-status", ordercontrollers.UpdatePaymentStatus(ordersSvc, logg))
		})
	})

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Post("/", inventorycontrollers.Create(inventorySvc, logg))
		r.Get("/", inventorycontrollers.List(inventorySvc, logg))
		r.Route("/{vehicleID}", func(r chi.Router) {
			r.Get("/", inventorycontrollers.Get(inventorySvc, logg))
			r.Patch("/", inventorycontrollers.Update(inventorySvc, logg))
			r.Get("/availability", inventorycontrollers.CheckAvailability(inventorySvc, logg))
			r.Post("/reserve", inventorycontrollers.Reserve(inventorySvc, logg))
			r.Post("/release", inventorycontrollers.Release(inventorySvc, logg))
			r.Post("/sell", inventorycontrollers.Sell(inventorySvc, logg))
		})
	})

	r.Route("/api/v1/pricing", func(r chi.Router) {
		r.Post("/calculate", pricingcontrollers.Calculate(pricingSvc, prices, logg))
		r.Get("/history/{vehicleID}", pricingcontrollers.PriceHistory(pricingSvc, logg))
	})

	r.Route("/api/v1/discounts", func(r chi.Router) {
		r.Post("/", pricingcontrollers.CreateDiscount(pricingSvc, logg))
		r.Get("/", pricingcontrollers.ListDiscounts(pricingSvc, logg))
		r.Post("/validate", pricingcontrollers.ValidateDiscount(pricingSvc, logg))
		r.Get("/{code}", pricingcontrollers.GetDiscount(pricingSvc, logg))
		r.Patch("/{code}", pricingcontrollers.UpdateDiscount(pricingSvc, logg))
	})

	return r
}
