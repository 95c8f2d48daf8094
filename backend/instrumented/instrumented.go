package instrumented

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// TracerName is the instrumentation scope of spans created by Backend.
const TracerName = "github.com/jmgilman/go/storage/backend/instrumented"

// Backend records metrics and spans for every call to the wrapped backend
// and optionally throttles calls.
type Backend struct {
	next    core.Backend
	name    string
	metrics *Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// MetadataBackend is returned by Wrap when the wrapped backend implements
// core.MetadataSupporter.
type MetadataBackend struct {
	*Backend
	meta core.MetadataSupporter
}

// Wrap decorates next. The result implements core.MetadataSupporter exactly
// when next does.
func Wrap(next core.Backend, opts ...Option) (core.Backend, error) {
	o := options{
		name:       next.Type().String(),
		namespace:  "storage",
		registerer: prometheus.DefaultRegisterer,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.metrics == nil {
		m, err := NewMetrics(o.registerer, o.namespace)
		if err != nil {
			return nil, serrors.Wrap(err, serrors.CodeInvalidConfig, "failed to register metrics")
		}
		o.metrics = m
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	b := &Backend{
		next:    next,
		name:    o.name,
		metrics: o.metrics,
		logger:  o.logger,
		tracer:  o.tracerProvider.Tracer(TracerName),
		limiter: o.limiter,
	}

	if ms, ok := next.(core.MetadataSupporter); ok {
		return &MetadataBackend{Backend: b, meta: ms}, nil
	}
	return b, nil
}

// Unwrap returns the decorated backend.
func (b *Backend) Unwrap() core.Backend {
	return b.next
}

// Exists reports whether an object is stored at key.
func (b *Backend) Exists(key string) (bool, error) {
	c, err := b.begin("exists", key)
	if err != nil {
		return false, err
	}
	exists, err := b.next.Exists(key)
	b.end(c, err)
	return exists, err
}

// Read returns the content stored at key.
func (b *Backend) Read(key string) ([]byte, error) {
	c, err := b.begin("read", key)
	if err != nil {
		return nil, err
	}
	data, err := b.next.Read(key)
	if err == nil {
		c.bytes(int64(len(data)))
	}
	b.end(c, err)
	return data, err
}

// Write stores data at key.
func (b *Backend) Write(key string, data []byte, overwrite bool) (int64, error) {
	c, err := b.begin("write", key)
	if err != nil {
		return 0, err
	}
	n, err := b.next.Write(key, data, overwrite)
	if err == nil {
		c.bytes(n)
	}
	b.end(c, err)
	return n, err
}

// Delete removes the object stored at key.
func (b *Backend) Delete(key string) error {
	c, err := b.begin("delete", key)
	if err != nil {
		return err
	}
	err = b.next.Delete(key)
	b.end(c, err)
	return err
}

// CreateStream counts the stream creation and returns the wrapped backend's
// stream. Stream I/O is neither measured nor throttled.
func (b *Backend) CreateStream(key string) core.Stream {
	b.metrics.Operations.WithLabelValues(b.name, "stream", "ok").Inc()
	return b.next.CreateStream(key)
}

// Type returns the type of the wrapped backend.
func (b *Backend) Type() core.BackendType {
	return b.next.Type()
}

// SetMetadata records metadata for key.
func (b *MetadataBackend) SetMetadata(key string, metadata core.Metadata) error {
	c, err := b.begin("setmetadata", key)
	if err != nil {
		return err
	}
	err = b.meta.SetMetadata(key, metadata)
	b.end(c, err)
	return err
}

// Metadata returns the metadata recorded for key.
func (b *MetadataBackend) Metadata(key string) (core.Metadata, error) {
	c, err := b.begin("metadata", key)
	if err != nil {
		return nil, err
	}
	md, err := b.meta.Metadata(key)
	b.end(c, err)
	return md, err
}

// call tracks one in-flight backend call.
type call struct {
	op    string
	key   string
	start time.Time
	span  trace.Span
	n     int64
}

func (c *call) bytes(n int64) {
	c.n = n
	c.span.SetAttributes(attribute.Int64("storage.bytes", n))
}

// begin starts the span of a call and waits for the limiter.
func (b *Backend) begin(op, key string) (*call, error) {
	ctx, span := b.tracer.Start(context.Background(), "storage."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("storage.backend", b.name),
			attribute.String("storage.key", key),
		),
	)
	c := &call{op: op, key: key, span: span}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			err = serrors.WithContext(
				serrors.Wrap(err, serrors.CodeRateLimit, op+" rejected by rate limiter"),
				"key", key,
			)
			c.start = time.Now()
			b.end(c, err)
			return nil, err
		}
	}

	c.start = time.Now()
	return c, nil
}

// end records the outcome of a call and ends its span.
func (b *Backend) end(c *call, err error) {
	defer c.span.End()

	b.metrics.Duration.WithLabelValues(b.name, c.op).Observe(time.Since(c.start).Seconds())

	if err == nil {
		b.metrics.Operations.WithLabelValues(b.name, c.op, "ok").Inc()
		if c.op == "read" || c.op == "write" {
			b.metrics.Bytes.WithLabelValues(b.name, c.op).Add(float64(c.n))
		}
		return
	}

	code := serrors.GetCode(err)
	b.metrics.Operations.WithLabelValues(b.name, c.op, "error").Inc()
	b.metrics.Errors.WithLabelValues(b.name, c.op, string(code)).Inc()

	c.span.SetAttributes(attribute.String("storage.error_code", string(code)))

	// Not-found is an expected answer, not a span error.
	level := slog.LevelDebug
	if !core.IsNotFound(err) {
		level = slog.LevelWarn
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, string(code))
	}

	b.logger.Log(context.Background(), level, "backend call failed",
		slog.String("backend", b.name),
		slog.String("op", c.op),
		slog.String("key", c.key),
		slog.String("code", string(code)),
		slog.Any("error", err),
	)
}

// Compile-time interface checks.
var (
	_ core.Backend           = (*Backend)(nil)
	_ core.Backend           = (*MetadataBackend)(nil)
	_ core.MetadataSupporter = (*MetadataBackend)(nil)
)
