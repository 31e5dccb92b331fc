package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avelarde/shopfront-backend/api/controllers"
	webhookcontrollers "github.com/avelarde/shopfront-backend/api/controllers/webhooks"
	"github.com/avelarde/shopfront-backend/api/middleware"
	"github.com/avelarde/shopfront-backend/internal/checkout"
	"github.com/avelarde/shopfront-backend/internal/orders"
	"github.com/avelarde/shopfront-backend/internal/products"
	"github.com/avelarde/shopfront-backend/internal/settings"
	"github.com/avelarde/shopfront-backend/internal/settlement"
	"github.com/avelarde/shopfront-backend/pkg/config"
	"github.com/avelarde/shopfront-backend/pkg/db"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	"github.com/avelarde/shopfront-backend/pkg/logger"
)

// Services groups everything the router mounts.
type Services struct {
	Checkout   checkout.Service
	Settlement settlement.Service
	Products   products.Service
	Orders     orders.Service
	Settings   settings.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(svcs.Settlement, logg))
	})

	r.Route("/api/shop", func(r chi.Router) {
		r.Get("/settings", controllers.PublicSettings(svcs.Settings, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(svcs.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(svcs.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(svcs.Checkout, logg))
			r.Get("/{orderNo}", controllers.QueryOrder(svcs.Checkout, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Route("/stripe", func(r chi.Router) {
				r.Post("/sessions", controllers.PaymentInitiate(svcs.Settlement, enums.ProviderStripe, logg))
				r.Post("/confirm", controllers.PaymentConfirm(svcs.Settlement, enums.ProviderStripe, logg))
			})
			r.Route("/paypal", func(r chi.Router) {
				r.Post("/orders", controllers.PaymentInitiate(svcs.Settlement, enums.ProviderPayPal, logg))
				r.Post("/capture", controllers.PaymentConfirm(svcs.Settlement, enums.ProviderPayPal, logg))
			})
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.Shop.AdminAPIToken, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(svcs.Products, logg))
			r.Post("/", controllers.AdminCreateProduct(svcs.Products, logg))
			r.Get("/{productId}", controllers.AdminGetProduct(svcs.Products, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(svcs.Products, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(svcs.Products, logg))
			r.Put("/{productId}/variants", controllers.AdminReplaceVariants(svcs.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(svcs.Orders, logg))
			r.Post("/{orderId}/advance", controllers.AdminAdvanceOrder(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.AdminCancelOrder(svcs.Orders, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.AdminListPayments(svcs.Orders, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.AdminGetSettings(svcs.Settings, logg))
			r.Put("/", controllers.AdminUpdateSettings(svcs.Settings, logg))
			r.Post("/test-paypal", controllers.AdminTestPayPal(svcs.Settings, logg))
		})
	})

	return r
}
