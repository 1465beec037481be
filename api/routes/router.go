package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/marketdesk-backend/api/controllers"
	earningscontrollers "github.com/angelmondragon/marketdesk-backend/api/controllers/earnings"
	ordercontrollers "github.com/angelmondragon/marketdesk-backend/api/controllers/orders"
	payoutcontrollers "github.com/angelmondragon/marketdesk-backend/api/controllers/payouts"
	"github.com/angelmondragon/marketdesk-backend/api/middleware"
	"github.com/angelmondragon/marketdesk-backend/internal/earnings"
	"github.com/angelmondragon/marketdesk-backend/internal/orders"
	"github.com/angelmondragon/marketdesk-backend/internal/payouts"
	"github.com/angelmondragon/marketdesk-backend/pkg/config"
	"github.com/angelmondragon/marketdesk-backend/pkg/db"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/angelmondragon/marketdesk-backend/pkg/logger"
	"github.com/angelmondragon/marketdesk-backend/pkg/metrics"
	"github.com/angelmondragon/marketdesk-backend/pkg/redis"
)

// Services groups the domain services the API serves.
type Services struct {
	Orders   orders.Service
	Earnings earnings.Service
	Payouts  payouts.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
		middleware.Logging(logg, httpMetrics),
	)

	ready := map[string]controllers.Pinger{}
	if dbP != nil {
		ready["db"] = dbP
	}
	var idempotency redis.IdempotencyStore
	if redisClient != nil {
		ready["redis"] = redisClient
		idempotency = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Idempotency is attached per route so it sees the full route pattern.
	idem := middleware.Idempotency(idempotency, logg)

	r.Route("/api/v1/seller", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.ActorRoleSeller, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(svcs.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(svcs.Orders, logg))
			r.Patch("/{orderId}/status", ordercontrollers.UpdateStatus(svcs.Orders, logg))
		})
		r.Get("/earnings", earningscontrollers.SellerSummary(svcs.Earnings, logg))
		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", payoutcontrollers.List(svcs.Payouts, logg))
			r.With(idem).Post("/", payoutcontrollers.Create(svcs.Payouts, logg))
			r.Get("/balance", payoutcontrollers.Balance(svcs.Payouts, logg))
			r.With(idem).Post("/{payoutId}/cancel", payoutcontrollers.Cancel(svcs.Payouts, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.ActorRoleAdmin, logg))

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/", ordercontrollers.Detail(svcs.Orders, logg))
			r.Patch("/status", ordercontrollers.UpdateStatus(svcs.Orders, logg))
			r.Patch("/payment-status", ordercontrollers.UpdatePaymentStatus(svcs.Orders, logg))
		})
		r.Get("/sellers/{sellerId}/earnings", earningscontrollers.AdminSellerSummary(svcs.Earnings, logg))
		r.Get("/earnings/commission", earningscontrollers.Commission(svcs.Earnings, logg))
		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", payoutcontrollers.AdminList(svcs.Payouts, logg))
			r.With(idem).Post("/{payoutId}/approve", payoutcontrollers.Approve(svcs.Payouts, logg))
			r.With(idem).Post("/{payoutId}/complete", payoutcontrollers.Complete(svcs.Payouts, logg))
			r.With(idem).Post("/{payoutId}/reject", payoutcontrollers.Reject(svcs.Payouts, logg))
		})
	})

	return r
}
