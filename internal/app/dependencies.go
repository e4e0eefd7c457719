package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/health"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/ratelimit"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

// Dependencies enumerates the services shared by the API entrypoints.
type Dependencies struct {
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Catalog  *catalog.Catalog
	Engine   *pricing.Engine
	Checkout *checkout.Service
	Limiter  *limiter.Limiter
	Metrics  *obs.CheckoutMetrics

	closers []func()
}

// Options tweaks Build for callers that do not need every dependency.
type Options struct {
	// Registerer receives the checkout metrics. Nil uses the default registry.
	Registerer prometheus.Registerer
	// InstrumentRedis enables redisotel tracing and metrics on the client.
	InstrumentRedis bool
}

// Build connects to the configured backing services, loads the catalog and
// pricing rules, and assembles the checkout service. Callers must Close the
// result.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	deps := &Dependencies{}
	if err := deps.build(ctx, cfg, logger, opts); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}

func (d *Dependencies) build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) error {
	if cfg.RedisURL != "" {
		client, err := NewRedis(ctx, cfg.RedisURL, opts.InstrumentRedis)
		if err != nil {
			return err
		}
		d.Redis = client
		d.closers = append(d.closers, func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		})
	}

	if cfg.CatalogSource == config.CatalogPostgres {
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		d.DB = pool
		d.closers = append(d.closers, pool.Close)
	}

	src, err := CatalogSource(ctx, cfg, d.DB)
	if err != nil {
		return err
	}
	attempts := 1
	if cfg.CatalogSource == config.CatalogPostgres || cfg.CatalogSource == config.CatalogS3 {
		attempts = cfg.CatalogLoadAttempts
	}
	err = resilience.Retry(ctx, resilience.RetryPolicy{Attempts: attempts, Base: 200 * time.Millisecond, Jitter: 0.2}, func(ctx context.Context) error {
		var loadErr error
		d.Catalog, loadErr = catalog.Load(ctx, src)
		if loadErr != nil {
			logger.Warn().Err(loadErr).Str("source", cfg.CatalogSource).Msg("catalog load failed")
		}
		return loadErr
	})
	if err != nil {
		return err
	}
	logger.Info().Str("source", cfg.CatalogSource).Int("products", d.Catalog.Len()).Msg("catalog loaded")

	rules, err := config.LoadRules(cfg.PricingRulesFile, cfg.BulkBuyStrategy)
	if err != nil {
		return err
	}
	d.Engine, err = pricing.NewEngine(rules)
	if err != nil {
		return err
	}

	d.Metrics = obs.NewCheckoutMetrics(cfg.MetricsNamespace, opts.Registerer)
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Target:  "quote_cache",
		Logger:  logger,
		Metrics: resilience.NewBreakerMetrics(cfg.MetricsNamespace, opts.Registerer),
	})
	d.Checkout, err = checkout.NewService(checkout.ServiceConfig{
		Catalog: d.Catalog,
		Engine:  d.Engine,
		Cache:   checkout.NewCache(d.Redis, cfg.QuoteCacheTTL).WithBreaker(breaker),
		Metrics: d.Metrics,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if cfg.RateLimitCheckout != "" && cfg.RateLimitCheckout != "off" {
		store, err := ratelimit.NewStore(d.Redis)
		if err != nil {
			return fmt.Errorf("rate limit store: %w", err)
		}
		d.Limiter, err = ratelimit.New(store, cfg.RateLimitCheckout)
		if err != nil {
			return fmt.Errorf("rate limit %q: %w", cfg.RateLimitCheckout, err)
		}
	}
	return nil
}

// Probes lists readiness checks for the connected backing services.
func (d *Dependencies) Probes() []health.Probe {
	var probes []health.Probe
	if d.DB != nil {
		probes = append(probes, health.Probe{Name: "db", Pinger: d.DB})
	}
	if d.Redis != nil {
		client := d.Redis
		probes = append(probes, health.Probe{
			Name:   "redis",
			Pinger: health.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() }),
		})
	}
	return probes
}

// Close releases connections in reverse order of acquisition.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// NewRedis parses url, optionally instruments the client, and verifies the
// connection.
func NewRedis(ctx context.Context, url string, instrument bool) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if instrument {
		if err := redisotel.InstrumentTracing(client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("instrument redis tracing: %w", err)
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("instrument redis metrics: %w", err)
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewPool opens a traced pgx pool.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "toko-checkout"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// CatalogSource selects the catalog source named by cfg.CatalogSource.
func CatalogSource(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (catalog.Source, error) {
	switch cfg.CatalogSource {
	case config.CatalogEmbedded, "":
		return catalog.EmbeddedSource{}, nil
	case config.CatalogFile:
		return catalog.FileSource{Path: cfg.CatalogPath}, nil
	case config.CatalogPostgres:
		if db == nil {
			return nil, errors.New("postgres catalog requires a database pool")
		}
		return catalog.PostgresSource{DB: db}, nil
	case config.CatalogS3:
		client, err := catalog.NewS3Client(ctx, catalog.S3ClientConfig{
			Region:         cfg.CatalogS3.Region,
			Endpoint:       cfg.CatalogS3.Endpoint,
			AccessKey:      cfg.CatalogS3.AccessKey,
			SecretKey:      cfg.CatalogS3.SecretKey,
			ForcePathStyle: cfg.CatalogS3.ForcePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return catalog.S3Source{Client: client, Bucket: cfg.CatalogS3.Bucket, Key: cfg.CatalogS3.Key}, nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}
}
