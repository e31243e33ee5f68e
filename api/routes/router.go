package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platevine/platevine-backend/api/controllers"
	ordercontrollers "github.com/platevine/platevine-backend/api/controllers/orders"
	webhookcontrollers "github.com/platevine/platevine-backend/api/controllers/webhooks"
	"github.com/platevine/platevine-backend/api/middleware"
	internalorders "github.com/platevine/platevine-backend/internal/orders"
	"github.com/platevine/platevine-backend/internal/slots"
	"github.com/platevine/platevine-backend/pkg/config"
	"github.com/platevine/platevine-backend/pkg/db"
	"github.com/platevine/platevine-backend/pkg/logger"
	"github.com/platevine/platevine-backend/pkg/redis"
	"github.com/platevine/platevine-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	availability *slots.AvailabilityService,
	slotsService slots.Service,
	ordersService internalorders.Service,
	stripeClient *stripe.Client,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		}))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stores/{storeId}/slots", controllers.SlotAvailability(availability, cfg.App.Location(), logg))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(ordersService, stripeClient, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", ordercontrollers.Place(ordersService, logg))
				r.Post("/bulk-cancel", ordercontrollers.BulkCancel(ordersService, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
				r.Post("/{orderId}/cancel", ordercontrollers.Cancel(ordersService, logg))
				r.Post("/{orderId}/ready", ordercontrollers.MarkReady(ordersService, logg))
			})

			r.Route("/slot-templates", func(r chi.Router) {
				r.Post("/", controllers.CreateSlotTemplate(slotsService, logg))
				r.Get("/", controllers.ListSlotTemplates(slotsService, logg))
				r.Delete("/{templateId}", controllers.DeleteSlotTemplate(slotsService, logg))
			})
		})
	})

	return r
}
