package instrumented

import (
	"bytes"
	"log/slog"
	"maps"
	"sync"
	"testing"

	"github.com/jmgilman/go/storage/backend/backendtest"
	"github.com/jmgilman/go/storage/backend/billy"
	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
	"github.com/jmgilman/go/storage/filesystem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/time/rate"
)

// metaMemory adds immediate metadata storage to the in-memory backend.
type metaMemory struct {
	*billy.MemoryFS
	mu   sync.Mutex
	meta map[string]core.Metadata
}

func newMetaMemory() *metaMemory {
	return &metaMemory{MemoryFS: billy.NewMemory(), meta: map[string]core.Metadata{}}
}

func (m *metaMemory) SetMetadata(key string, metadata core.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[key] = maps.Clone(metadata)
	return nil
}

func (m *metaMemory) Metadata(key string) (core.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	md := core.Metadata{}
	maps.Copy(md, m.meta[key])
	return md, nil
}

func wrap(t *testing.T, next core.Backend, opts ...Option) (core.Backend, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	b, err := Wrap(next, append([]Option{WithRegisterer(reg)}, opts...)...)
	require.NoError(t, err)
	return b, reg
}

func TestSuite_Memory(t *testing.T) {
	backendtest.TestSuite(t, func() core.Backend {
		b, _ := wrap(t, billy.NewMemory())
		return b
	})
}

func TestSuite_Metadata(t *testing.T) {
	backendtest.TestSuite(t, func() core.Backend {
		b, _ := wrap(t, newMetaMemory())
		return b
	})
}

func TestWrap_PreservesMetadataCapability(t *testing.T) {
	plain, _ := wrap(t, billy.NewMemory())
	_, ok := plain.(core.MetadataSupporter)
	assert.False(t, ok)
	assert.False(t, filesystem.New(plain).IsMetadataSupported())

	meta, _ := wrap(t, newMetaMemory())
	_, ok = meta.(core.MetadataSupporter)
	assert.True(t, ok)
	assert.True(t, filesystem.New(meta).IsMetadataSupported())
}

func TestWrap_DefaultName(t *testing.T) {
	b, _ := wrap(t, billy.NewMemory())
	assert.Equal(t, "memory", b.(*Backend).name)
	assert.Equal(t, core.BackendTypeMemory, b.Type())

	b, _ = wrap(t, billy.NewMemory(), WithName("cache"))
	assert.Equal(t, "cache", b.(*Backend).name)
}

func TestWrap_Unwrap(t *testing.T) {
	inner := billy.NewMemory()
	b, _ := wrap(t, inner)
	assert.Same(t, inner, b.(*Backend).Unwrap())
}

func TestWrap_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := Wrap(billy.NewMemory(), WithRegisterer(reg), WithName("a"))
	require.NoError(t, err)
	second, err := Wrap(billy.NewMemory(), WithRegisterer(reg), WithName("b"))
	require.NoError(t, err)

	assert.Same(t, first.(*Backend).metrics.Operations, second.(*Backend).metrics.Operations)
}

func TestBackend_Metrics(t *testing.T) {
	b, reg := wrap(t, newMetaMemory(), WithName("mem"))
	m := b.(*MetadataBackend).metrics

	fsys := filesystem.New(b)
	f := fsys.CreateFile("a.txt")

	_, err := f.SetContent([]byte("hello"), core.Metadata{"owner": "ops"})
	require.NoError(t, err)
	_, err = fsys.Read("a.txt")
	require.NoError(t, err)
	_, err = fsys.Write("a.txt", []byte("again"), false)
	require.ErrorIs(t, err, core.ErrExist)
	_, err = fsys.Read("missing.txt")
	require.ErrorIs(t, err, core.ErrNotFound)
	_ = fsys.CreateStream("a.txt")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("mem", "setmetadata", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("mem", "write", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("mem", "write", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("mem", "read", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("mem", "read", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("mem", "stream", "ok")))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("mem", "write", "ALREADY_EXISTS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("mem", "read", "NOT_FOUND")))

	assert.Equal(t, 5.0, testutil.ToFloat64(m.Bytes.WithLabelValues("mem", "write")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Bytes.WithLabelValues("mem", "read")))

	assert.Equal(t, 3, testutil.CollectAndCount(m.Duration))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "storage_backend_errors_total"))
}

func TestBackend_Namespace(t *testing.T) {
	b, reg := wrap(t, billy.NewMemory(), WithNamespace("app"))
	_, err := b.Exists("a.txt")
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "app_backend_operations_total"))
	assert.Equal(t, 0, testutil.CollectAndCount(reg, "storage_backend_operations_total"))
}

func TestBackend_WithMetrics(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry(), "shared")
	require.NoError(t, err)

	b, err := Wrap(billy.NewMemory(), WithMetrics(m), WithName("mem"))
	require.NoError(t, err)

	err = b.Delete("missing.txt")
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("mem", "delete", "NOT_FOUND")))
}

func TestBackend_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	b, _ := wrap(t, billy.NewMemory(), WithLogger(logger), WithName("mem"))

	_, err := b.Read("missing.txt")
	require.Error(t, err)
	assert.Empty(t, buf.String(), "not-found is logged below warn")

	_, err = b.Write("a.txt", []byte("x"), true)
	require.NoError(t, err)
	_, err = b.Write("a.txt", []byte("y"), false)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "backend call failed")
	assert.Contains(t, out, "op=write")
	assert.Contains(t, out, "key=a.txt")
	assert.Contains(t, out, "code=ALREADY_EXISTS")
}

func TestBackend_Tracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	b, _ := wrap(t, billy.NewMemory(), WithTracerProvider(tp), WithName("mem"))

	_, err := b.Write("a.txt", []byte("hello"), true)
	require.NoError(t, err)
	_, err = b.Read("missing.txt")
	require.Error(t, err)
	_, err = b.Write("a.txt", []byte("x"), false)
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "storage.write", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("storage.backend", "mem"))
	assert.Contains(t, spans[0].Attributes(), attribute.String("storage.key", "a.txt"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("storage.bytes", 5))

	assert.Equal(t, "storage.read", spans[1].Name())
	assert.Equal(t, codes.Unset, spans[1].Status().Code, "not-found is not a span error")
	assert.Contains(t, spans[1].Attributes(), attribute.String("storage.error_code", "NOT_FOUND"))

	assert.Equal(t, "storage.write", spans[2].Name())
	assert.Equal(t, codes.Error, spans[2].Status().Code)
	assert.Equal(t, "ALREADY_EXISTS", spans[2].Status().Description)
	assert.Len(t, spans[2].Events(), 1)
}

func TestBackend_Limiter(t *testing.T) {
	b, _ := wrap(t, billy.NewMemory(), WithLimiter(rate.NewLimiter(rate.Limit(1), 0)), WithName("mem"))

	_, err := b.Exists("a.txt")
	require.Error(t, err)
	assert.Equal(t, serrors.CodeRateLimit, serrors.GetCode(err))
	assert.True(t, serrors.IsRetryable(err))

	m := b.(*Backend).metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("mem", "exists", "RATE_LIMIT_EXCEEDED")))

	b, _ = wrap(t, billy.NewMemory(), WithLimiter(rate.NewLimiter(rate.Inf, 1)))
	exists, err := b.Exists("a.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}
