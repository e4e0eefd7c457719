package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/app"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/health"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/ratelimit"
	"github.com/noah-isme/toko-checkout/internal/security"
)

type routerConfig struct {
	Config  *config.Config
	Deps    *app.Dependencies
	Logger  zerolog.Logger
	Metrics *obs.HTTPMetrics
	Tracing bool
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

func newRouter(rc routerConfig) http.Handler {
	cfg := rc.Config
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if rc.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if rc.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: rc.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: rc.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{Enable: true}.Middleware)

	if cfg.MetricsEnabled {
		gatherer := rc.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	healthHandler := health.Handler{Probes: rc.Deps.Probes()}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Catalog: rc.Deps.Catalog})
	checkoutHandler := checkout.NewHandler(checkout.HandlerConfig{Service: rc.Deps.Checkout})
	limit := ratelimit.Handler{
		Limiter: rc.Deps.Limiter,
		OnError: func(err error) { rc.Logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(middleware.Timeout(requestTimeout(cfg)))
		v.Get("/products", catalogHandler.Codes)
		v.Get("/products/{code}", catalogHandler.Product)
		v.Group(func(g chi.Router) {
			g.Use(limit.Middleware)
			g.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
			g.Post("/checkout", checkoutHandler.Checkout)
		})
	})
	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.HTTPRequestTimeout <= 0 {
		return 5 * time.Second
	}
	return cfg.HTTPRequestTimeout
}
