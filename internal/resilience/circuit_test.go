package resilience

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(metrics *BreakerMetrics) (*Breaker, *time.Time) {
	clock := time.Unix(1_700_000_000, 0)
	b := NewBreaker(BreakerConfig{Target: "redis", MinRequests: 2, FailureRatio: 0.5, OpenFor: time.Minute, Metrics: metrics})
	b.now = func() time.Time { return clock }
	return b, &clock
}

func TestBreakerTransitions(t *testing.T) {
	b, clock := newTestBreaker(nil)

	require.True(t, b.Allow())
	b.Report(false)
	require.True(t, b.Allow())
	b.Report(false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow())

	*clock = clock.Add(time.Minute)
	require.True(t, b.Allow(), "cool-off admits a probe")
	require.Equal(t, HalfOpen, b.State())
	require.False(t, b.Allow(), "only one probe at a time")

	b.Report(true)
	require.Equal(t, Closed, b.State())
	require.True(t, b.Allow())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b, clock := newTestBreaker(nil)
	b.Report(false)
	b.Report(false)

	*clock = clock.Add(2 * time.Minute)
	require.True(t, b.Allow())
	b.Report(false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow())
}

func TestBreakerStaysClosedBelowRatio(t *testing.T) {
	b, _ := newTestBreaker(nil)
	for i := 0; i < 10; i++ {
		b.Report(true)
	}
	b.Report(false)
	require.Equal(t, Closed, b.State())
}

func TestBreakerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewBreakerMetrics("test", reg)
	require.Same(t, metrics.State, NewBreakerMetrics("test", reg).State)

	b, _ := newTestBreaker(metrics)
	b.Report(false)
	b.Report(false)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.State.WithLabelValues("redis")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("redis", "closed", "open")))
}
