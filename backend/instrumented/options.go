package instrumented

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type options struct {
	name       string
	namespace  string
	registerer prometheus.Registerer
	metrics    *Metrics
	logger     *slog.Logger

	tracerProvider trace.TracerProvider
	limiter        *rate.Limiter
}

// Option configures Wrap.
type Option func(*options)

// WithName sets the "backend" label. Defaults to the backend type.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithNamespace sets the metric namespace. Default: "storage"
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithRegisterer sets where collectors are registered.
// Default: prometheus.DefaultRegisterer
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		if reg != nil {
			o.registerer = reg
		}
	}
}

// WithMetrics uses existing collectors instead of registering new ones.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLogger sets the logger failed calls are reported to at warn level.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracerProvider sets the provider spans are created from.
// Default: the global provider (otel.GetTracerProvider)
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithLimiter throttles backend calls: each call waits for one token.
// Calls that can never be served, such as with a zero burst, fail with
// errors.CodeRateLimit.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(o *options) {
		o.limiter = limiter
	}
}
