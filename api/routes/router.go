package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/homura-labs/storefront/api/controllers"
	cartcontrollers "github.com/homura-labs/storefront/api/controllers/cart"
	"github.com/homura-labs/storefront/api/middleware"
	"github.com/homura-labs/storefront/internal/access"
	"github.com/homura-labs/storefront/internal/catalog"
	checkoutsvc "github.com/homura-labs/storefront/internal/checkout"
	"github.com/homura-labs/storefront/internal/newsletter"
	"github.com/homura-labs/storefront/internal/storage"
	"github.com/homura-labs/storefront/pkg/config"
	"github.com/homura-labs/storefront/pkg/logger"
	"github.com/homura-labs/storefront/pkg/metrics"
	pkgredis "github.com/homura-labs/storefront/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	sessionStore storage.Store,
	redisClient *pkgredis.Client,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	carts cartcontrollers.Sessions,
	catalogService catalog.Service,
	newsletterService newsletter.Service,
	accessService access.Service,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()

	// Rate limits and idempotency both need redis; without it they pass through.
	var (
		limiter          middleware.RateLimiterStore
		idempotencyStore pkgredis.IdempotencyStore
	)
	if redisClient != nil {
		limiter = redisClient
		idempotencyStore = redisClient
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.Session(cfg.Session, logg),
	)

	var verifier middleware.AccessVerifier
	if accessService != nil {
		verifier = accessService
	}
	r.Use(middleware.AccessGate(verifier, cfg.Access.CookieName, cfg.Access.EntryPath, logg))

	newsletterPolicy := middleware.NewRateLimitPolicy(
		"newsletter",
		cfg.RateLimit.NewsletterWindow,
		cfg.RateLimit.NewsletterIPLimit,
		cfg.RateLimit.NewsletterEmailLimit,
	)
	accessPolicy := middleware.NewRateLimitPolicy(
		"access",
		cfg.RateLimit.AccessWindow,
		cfg.RateLimit.AccessIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, sessionStore, logg))
	})

	if cfg.Metrics.Enabled && gatherer != nil {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimit(newsletterPolicy, limiter, logg)).
			Post("/newsletter", controllers.NewsletterSubscribe(newsletterService, accessService, cfg, logg))
		r.With(middleware.RateLimit(accessPolicy, limiter, logg)).
			Post("/access", controllers.UnlockStorefront(accessService, cfg, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(catalogService, logg))
				r.Get("/{handle}", controllers.GetProduct(catalogService, logg))
				r.Get("/{handle}/related", controllers.RelatedProducts(catalogService, logg))
			})
			r.Get("/collections", controllers.ListCollections(catalogService, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(carts, logg))
				r.Delete("/", cartcontrollers.CartClear(carts, logg))
				r.With(middleware.Idempotency(idempotencyStore, logg)).
					Post("/items", cartcontrollers.CartAddItem(carts, catalogService, logg))
				r.Patch("/items/{lineID}", cartcontrollers.CartUpdateItem(carts, logg))
				r.Delete("/items/{lineID}", cartcontrollers.CartRemoveItem(carts, logg))
			})

			r.With(middleware.Idempotency(idempotencyStore, logg)).
				Post("/checkout/buy-now", controllers.BuyNow(checkoutService, logg))
		})
	})

	return r
}
