package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	carthandler "github.com/kokoruadmin/kokoru-backend/internal/cart/handler/http"
	cataloghandler "github.com/kokoruadmin/kokoru-backend/internal/catalog/handler/http"
	checkouthandler "github.com/kokoruadmin/kokoru-backend/internal/checkout/handler/http"
	inventoryhandler "github.com/kokoruadmin/kokoru-backend/internal/inventory/handler/http"
	orderhandler "github.com/kokoruadmin/kokoru-backend/internal/order/handler/http"
	promotionhandler "github.com/kokoruadmin/kokoru-backend/internal/promotion/handler/http"
	"github.com/kokoruadmin/kokoru-backend/pkg/health"
	"github.com/kokoruadmin/kokoru-backend/pkg/middleware"
)

// handlers groups the HTTP handlers the router mounts.
type handlers struct {
	products *cataloghandler.ProductHandler
	coupons  *promotionhandler.CouponHandler
	offers   *promotionhandler.OfferHandler
	stock    *inventoryhandler.StockHandler
	cart     *carthandler.CartHandler
	orders   *orderhandler.OrderHandler
	checkout *checkouthandler.CheckoutHandler
}

// newRouter creates a chi router with all routes registered. Storefront
// reads are public, cart and checkout require a valid token, and
// management endpoints additionally require the admin role.
func newRouter(
	h handlers,
	healthHandler *health.Handler,
	tokenValidator middleware.TokenValidator,
	corsCfg middleware.CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing("kokoru"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("kokoru"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Public storefront endpoints
	r.Group(func(r chi.Router) {
		r.Get("/api/v1/products", h.products.ListProducts)
		r.Get("/api/v1/products/{idOrSlug}", h.products.GetProduct)
		r.Get("/api/v1/categories", h.products.ListCategories)
		r.Get("/api/v1/offers", h.offers.ListLiveOffers)
		r.Post("/api/v1/offers/best", h.offers.BestOffer)
		r.Post("/api/v1/stock/check", h.stock.CheckStock)
	})

	// Authenticated customer endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", h.cart.GetCart)
			r.Delete("/", h.cart.ClearCart)
			r.Post("/items", h.cart.AddItem)
			r.Put("/items", h.cart.UpdateItem)
			r.Delete("/items", h.cart.RemoveItem)
		})

		r.Post("/api/v1/checkout", h.checkout.Checkout)
		r.Post("/api/v1/checkout/quote", h.checkout.Quote)

		r.Get("/api/v1/orders", h.orders.ListMyOrders)
		r.Get("/api/v1/orders/{id}", h.orders.GetOrder)

		r.Get("/api/v1/coupons", h.coupons.ListMyCoupons)
		r.Post("/api/v1/coupons/validate", h.coupons.ValidateCoupon)
	})

	// Admin endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequireRole("admin"))

		r.Post("/api/v1/products", h.products.CreateProduct)
		r.Put("/api/v1/products/{id}", h.products.UpdateProduct)
		r.Delete("/api/v1/products/{id}", h.products.DeleteProduct)

		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Route("/coupons", func(r chi.Router) {
				r.Post("/", h.coupons.CreateCoupon)
				r.Get("/", h.coupons.ListCoupons)
				r.Get("/{id}", h.coupons.GetCoupon)
				r.Put("/{id}", h.coupons.UpdateCoupon)
				r.Delete("/{id}", h.coupons.DeleteCoupon)
			})

			r.Route("/offers", func(r chi.Router) {
				r.Post("/", h.offers.CreateOffer)
				r.Get("/", h.offers.ListOffers)
				r.Get("/{id}", h.offers.GetOffer)
				r.Put("/{id}", h.offers.UpdateOffer)
				r.Delete("/{id}", h.offers.DeleteOffer)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.orders.ListOrders)
				r.Patch("/{id}/status", h.orders.UpdateStatus)
				r.Delete("/{id}", h.orders.DeleteOrder)
			})

			r.Post("/stock/restock", h.stock.Restock)
		})
	})

	return r
}
