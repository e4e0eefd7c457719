package checkout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

// Quote is the priced outcome of a checkout request.
type Quote struct {
	ID             uuid.UUID
	TotalPrice     decimal.Decimal
	LoyaltyPoints  decimal.Decimal
	Subtotal       decimal.Decimal
	GlobalDiscount decimal.Decimal
	Items          int
	Unknown        []string
	Buckets        []pricing.BucketTotal
	Cached         bool
}

type cachedQuote struct {
	Result pricing.Result `json:"result"`
	Items  int            `json:"items"`
}

// Service resolves product codes against the catalog and prices them.
type Service struct {
	catalog     *catalog.Catalog
	engine      *pricing.Engine
	cache       *Cache
	metrics     *obs.CheckoutMetrics
	logger      zerolog.Logger
	tracer      trace.Tracer
	fingerprint string
}

// ServiceConfig groups Service dependencies. Cache and Metrics are optional.
type ServiceConfig struct {
	Catalog *catalog.Catalog
	Engine  *pricing.Engine
	Cache   *Cache
	Metrics *obs.CheckoutMetrics
	Logger  zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("checkout: catalog is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("checkout: pricing engine is required")
	}
	return &Service{
		catalog:     cfg.Catalog,
		engine:      cfg.Engine,
		cache:       cfg.Cache,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		tracer:      otel.Tracer("checkout"),
		fingerprint: common.Sha256Hex(fmt.Sprintf("%+v", cfg.Engine.Rules())),
	}, nil
}

// Quote prices the given product codes. Unknown codes are dropped and reported
// on the quote. Totals are independent of code order, so cached quotes are
// keyed by the sorted code list.
func (s *Service) Quote(ctx context.Context, codes []string) (Quote, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.quote", trace.WithAttributes(attribute.Int("checkout.codes", len(codes))))
	defer span.End()
	logger := s.loggerFor(ctx)
	start := time.Now()

	key := s.cacheKey(codes)
	var cached cachedQuote
	if ok, err := s.cache.GetJSON(ctx, key, &cached); errors.Is(err, resilience.ErrOpenCircuit) {
		s.observeCache("bypass")
	} else if err != nil {
		logger.Warn().Err(err).Msg("quote cache read failed")
		s.observeCache("error")
	} else if ok {
		s.observeCache("hit")
		span.SetAttributes(attribute.Bool("checkout.cached", true))
		q := newQuote(cached.Result, cached.Items, s.unknownCodes(codes))
		q.Cached = true
		s.observe(q, "cached", start)
		return q, nil
	} else if s.cache.enabled() {
		s.observeCache("miss")
	}

	items, unknown := s.catalog.Resolve(codes)
	if len(unknown) > 0 {
		logger.Debug().Strs("codes", unknown).Msg("dropping unknown product codes")
	}
	res, err := s.engine.Checkout(items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "checkout failed")
		s.countResult("error")
		var itemErr *pricing.ItemError
		if errors.As(err, &itemErr) {
			return Quote{}, common.Validation("line item is invalid", map[string]any{
				"index": itemErr.Index,
				"field": itemErr.Field,
			}, err)
		}
		return Quote{}, fmt.Errorf("checkout: price items: %w", err)
	}

	q := newQuote(res, len(items), unknown)
	if err := s.cache.SetJSON(ctx, key, cachedQuote{Result: res, Items: len(items)}); err != nil {
		logger.Warn().Err(err).Msg("quote cache write failed")
	}
	span.SetAttributes(
		attribute.Int("checkout.items", q.Items),
		attribute.Int("checkout.unknown", len(unknown)),
		attribute.String("checkout.total", q.TotalPrice.StringFixed(2)),
	)
	s.observe(q, "ok", start)
	logger.Info().
		Str("quote_id", q.ID.String()).
		Int("items", q.Items).
		Str("total", q.TotalPrice.StringFixed(2)).
		Str("points", q.LoyaltyPoints.StringFixed(2)).
		Msg("checkout quoted")
	return q, nil
}

func newQuote(res pricing.Result, items int, unknown []string) Quote {
	return Quote{
		ID:             uuid.New(),
		TotalPrice:     res.TotalPrice,
		LoyaltyPoints:  res.LoyaltyPoints,
		Subtotal:       res.Subtotal,
		GlobalDiscount: res.GlobalDiscount,
		Items:          items,
		Unknown:        unknown,
		Buckets:        res.Buckets,
	}
}

func (s *Service) cacheKey(codes []string) string {
	if !s.cache.enabled() {
		return ""
	}
	sorted := slices.Clone(codes)
	slices.Sort(sorted)
	return common.KeyOf(append([]string{s.fingerprint}, sorted...)...)
}

func (s *Service) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

func (s *Service) observe(q Quote, result string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.Quotes.WithLabelValues(result).Inc()
	s.metrics.Duration.Observe(obs.DurationMillis(time.Since(start)))
	if q.Cached {
		return
	}
	s.metrics.QuoteAmount.Observe(q.TotalPrice.InexactFloat64())
	s.metrics.LoyaltyAward.Observe(q.LoyaltyPoints.InexactFloat64())
	s.metrics.UnknownCodes.Add(float64(len(q.Unknown)))
}

func (s *Service) countResult(result string) {
	if s.metrics != nil {
		s.metrics.Quotes.WithLabelValues(result).Inc()
	}
}

func (s *Service) observeCache(result string) {
	if s.metrics != nil {
		s.metrics.QuoteCache.WithLabelValues(result).Inc()
	}
}

// unknownCodes lists the codes the catalog does not know, in request order.
// The cache key ignores order, so hits rebuild this from the caller's codes.
func (s *Service) unknownCodes(codes []string) []string {
	var unknown []string
	for _, code := range codes {
		if _, ok := s.catalog.Get(code); !ok {
			unknown = append(unknown, code)
		}
	}
	return unknown
}
