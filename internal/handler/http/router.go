// Package http wires the storefront's HTTP surface: the public cart,
// catalog, checkout, and order routes, the payment callback, and the
// operator-only sync endpoints.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geloski43/edcommerce/internal/cart"
	"github.com/geloski43/edcommerce/internal/catalog"
	"github.com/geloski43/edcommerce/internal/catalogsync"
	"github.com/geloski43/edcommerce/internal/checkout"
	"github.com/geloski43/edcommerce/internal/fulfillment"
	"github.com/geloski43/edcommerce/internal/orders"
	"github.com/geloski43/edcommerce/pkg/health"
	"github.com/geloski43/edcommerce/pkg/middleware"
)

// RouterConfig carries the router's secrets and limits.
type RouterConfig struct {
	CORS          middleware.CORSConfig
	CallbackToken string
	SyncSecret    string
	CheckoutRPS   int
	CheckoutBurst int
}

// Services groups everything the router serves.
type Services struct {
	Cart        *cart.Service
	Mirror      *catalog.Mirror
	Checkout    *checkout.Service
	Fulfillment *fulfillment.Service
	Orders      *orders.Service
	Sync        *catalogsync.Service
	Identity    SessionSyncer
	Health      *health.Handler
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svcs Services, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("store"))
	r.Use(middleware.Tracing("store"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/health/live", svcs.Health.LivenessHandler())
	r.Get("/health/ready", svcs.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(svcs.Cart, logger)
	catalogHandler := NewCatalogHandler(svcs.Mirror, logger)
	checkoutHandler := NewCheckoutHandler(svcs.Checkout, logger)
	webhookHandler := NewWebhookHandler(svcs.Fulfillment, logger)
	ordersHandler := NewOrdersHandler(svcs.Orders, svcs.Fulfillment, logger)
	syncHandler := NewSyncHandler(svcs.Sync, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(SessionIdentity(svcs.Identity, logger))

		r.Get("/products", catalogHandler.ListProducts)
		r.Get("/categories", catalogHandler.ListCategories)
		r.Get("/sub-categories", catalogHandler.ListSubCategories)
		r.Get("/currencies", catalogHandler.ListCurrencies)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items/{productID}", cartHandler.UpdateQuantity)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.CheckoutRPS, cfg.CheckoutBurst, logger))
			r.Post("/checkout", checkoutHandler.PlaceOrder)
		})

		r.Get("/orders", ordersHandler.ListOrders)
		r.Get("/orders/{externalRef}/deliveries", ordersHandler.ListDeliveries)
	})

	r.Route("/api/payment", func(r chi.Router) {
		r.Use(RequireSharedSecret(headerCallbackToken, cfg.CallbackToken))
		r.Post("/webhook", webhookHandler.HandleCallback)
	})

	r.Route("/api/sync", func(r chi.Router) {
		r.Use(RequireSharedSecret(headerSyncSecret, cfg.SyncSecret))
		// The original storefront called these as GETs; both verbs stay
		// routable so existing operator scripts keep working.
		r.Get("/categories", syncHandler.SyncCategories)
		r.Post("/categories", syncHandler.SyncCategories)
		r.Get("/sub-categories", syncHandler.SyncSubCategories)
		r.Post("/sub-categories", syncHandler.SyncSubCategories)
		r.Get("/products", syncHandler.SyncProducts)
		r.Post("/products", syncHandler.SyncProducts)
	})

	return r
}
