package stream

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricKind discriminates the single structured metric event emitted by
// every successful physical call, published under the log property esEvt
// (spec.md §4.A, §6).
type MetricKind string

const (
	MetricWriteSuccess  MetricKind = "WriteSuccess"
	MetricWriteConflict MetricKind = "WriteConflict"
	MetricSlice         MetricKind = "Slice"
	MetricBatch         MetricKind = "Batch"
)

// Metric is the payload of one esEvt log property.
type Metric struct {
	Kind     MetricKind
	Stream   string
	Direction *Direction
	Bytes    int
	Count    int
	Elapsed  time.Duration
}

// metricsCollector is the Prometheus side of component A, following the
// gravitational-teleport lib/backend Reporter idiom (lib/backend/report_test.go):
// one counter/histogram pair per logical operation, labelled by stream
// direction and outcome, collected independently of the structured log
// event emitted alongside it.
type metricsCollector struct {
	calls    *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var defaultMetrics = newMetricsCollector(prometheus.DefaultRegisterer)

func newMetricsCollector(reg prometheus.Registerer) *metricsCollector {
	var m = &metricsCollector{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamstore",
			Name:      "calls_total",
			Help:      "Physical event-log calls, by operation kind and outcome.",
		}, []string{"kind", "direction"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamstore",
			Name:      "bytes_total",
			Help:      "Bytes read or written, by operation kind.",
		}, []string{"kind", "direction"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "streamstore",
			Name:      "call_duration_seconds",
			Help:      "Physical event-log call latency, by operation kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "direction"}),
	}
	if reg != nil {
		// Registration is best-effort: a duplicate registration (e.g. in
		// tests constructing multiple Gateways against the default
		// registry) must not panic the caller.
		_ = reg.Register(m.calls)
		_ = reg.Register(m.bytes)
		_ = reg.Register(m.duration)
	}
	return m
}

func (m *metricsCollector) observe(metric Metric) {
	if m == nil {
		return
	}
	var direction = "-"
	if metric.Direction != nil {
		direction = metric.Direction.String()
	}
	m.calls.WithLabelValues(string(metric.Kind), direction).Inc()
	m.bytes.WithLabelValues(string(metric.Kind), direction).Add(float64(metric.Bytes))
	m.duration.WithLabelValues(string(metric.Kind), direction).Observe(metric.Elapsed.Seconds())
}

// runMetered wraps a single physical call with timing. It executes do
// through the supplied RetryPolicy, and on success emits exactly one
// structured log event carrying the Metric returned by describe,
// including its esEvt discriminator and elapsed duration (spec.md §4.A:
// "every successful physical call emits one structured log event with:
// stream name, direction, byte count, event count, elapsed interval, and
// a discriminator identifying the operation").
func runMetered[T any](
	ctx context.Context,
	policy RetryPolicy,
	logger Logger,
	collector *metricsCollector,
	do func(ctx context.Context, log Logger) (T, error),
	describe func(result T, elapsed time.Duration) (Logger, Metric, string, []interface{}),
) (T, error) {
	var result T
	var metric Metric
	var logAt Logger
	var template string
	var args []interface{}

	var err = withRetry(ctx, policy, logger, func(ctx context.Context, log Logger) error {
		var started = time.Now()
		var innerErr error
		result, innerErr = do(ctx, log)
		if innerErr != nil {
			return innerErr
		}
		logAt, metric, template, args = describe(result, time.Since(started))
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	collector.observe(metric)
	logAt.
		ForContext("esEvt", metric.Kind).
		ForContext("elapsed", metric.Elapsed).
		Info(template, args...)
	return result, nil
}
