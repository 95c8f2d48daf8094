// Package instrumented decorates a core.Backend with Prometheus metrics,
// OpenTelemetry spans, failure logging and optional rate limiting.
//
// Wrap returns a backend that keeps the metadata capability of the wrapped
// one, so filesystem.Filesystem detects it the same way. The other optional
// capabilities are not forwarded; the facade falls back to reading content
// for Size, Checksum and MimeType.
package instrumented

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by every backend wrapped with the
// same registerer and namespace.
type Metrics struct {
	// Operations counts backend calls by backend, op and result (ok | error).
	Operations *prometheus.CounterVec

	// Errors counts failed backend calls by backend, op and error code.
	Errors *prometheus.CounterVec

	// Duration observes backend call latency in seconds by backend and op.
	Duration *prometheus.HistogramVec

	// Bytes counts bytes read and written by backend and op.
	Bytes *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors already registered under the same names are reused.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "operations_total",
				Help:      "Backend operations by result.",
			},
			[]string{"backend", "op", "result"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "errors_total",
				Help:      "Failed backend operations by error code.",
			},
			[]string{"backend", "op", "code"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "operation_duration_seconds",
				Help:      "Backend operation latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "op"},
		),
		Bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "bytes_total",
				Help:      "Bytes transferred by read and write operations.",
			},
			[]string{"backend", "op"},
		),
	}

	var err error
	if m.Operations, err = register(reg, m.Operations); err != nil {
		return nil, err
	}
	if m.Errors, err = register(reg, m.Errors); err != nil {
		return nil, err
	}
	if m.Duration, err = register(reg, m.Duration); err != nil {
		return nil, err
	}
	if m.Bytes, err = register(reg, m.Bytes); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
