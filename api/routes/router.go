package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krislybeauty/storefront/api/controllers"
	"github.com/krislybeauty/storefront/api/middleware"
	"github.com/krislybeauty/storefront/internal/checkout"
	"github.com/krislybeauty/storefront/pkg/config"
	"github.com/krislybeauty/storefront/pkg/logger"
	"github.com/krislybeauty/storefront/pkg/redis"
)

// NewRouter wires the storefront API. redisPinger and idempotencyStore may be nil
// when redis is not configured; metricsHandler may be nil to omit /metrics.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisPinger redis.Pinger,
	idempotencyStore redis.IdempotencyStore,
	checkoutService checkout.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisPinger))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.Idempotency(idempotencyStore, logg)).
			Post("/checkout", controllers.Checkout(checkoutService, logg))
	})

	return r
}
