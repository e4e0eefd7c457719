package obs

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics groups collectors describing checkout quotes.
type CheckoutMetrics struct {
	Quotes       *prometheus.CounterVec
	QuoteAmount  prometheus.Histogram
	LoyaltyAward prometheus.Histogram
	UnknownCodes prometheus.Counter
	QuoteCache   *prometheus.CounterVec
	Duration     prometheus.Histogram
}

// NewCheckoutMetrics registers checkout collectors on reg (default registerer when nil).
// Registering twice on the same registry reuses the existing collectors.
func NewCheckoutMetrics(namespace string, reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &CheckoutMetrics{
		Quotes: Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_quotes_total",
			Help:      "Count of checkout quotes by outcome.",
		}, []string{"result"})),
		QuoteAmount: Register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_quote_amount",
			Help:      "Distribution of quoted checkout totals.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		})),
		LoyaltyAward: Register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_loyalty_points",
			Help:      "Distribution of loyalty points awarded per quote.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		})),
		UnknownCodes: Register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_unknown_codes_total",
			Help:      "Product codes dropped because the catalog does not know them.",
		})),
		QuoteCache: Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_quote_cache_total",
			Help:      "Quote cache lookups by outcome.",
		}, []string{"result"})),
		Duration: Register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_quote_duration_ms",
			Help:      "Time spent computing a quote in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50},
		})),
	}
}
