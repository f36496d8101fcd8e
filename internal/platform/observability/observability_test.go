package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/auth"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/requestctx"
)

func TestParseCloudTraceContext(t *testing.T) {
	info, spanCtx, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/1;o=1")
	require.True(t, ok)
	assert.Equal(t, "105445aa7843bc8bf206b12000100000", info.TraceID)
	assert.Equal(t, "0000000000000001", info.SpanID)
	assert.True(t, info.Sampled)
	assert.True(t, spanCtx.IsRemote())
	assert.True(t, spanCtx.IsSampled())

	info, _, ok = parseCloudTraceContext("105445aa7843bc8bf206b12000100000/abc")
	require.True(t, ok)
	assert.Equal(t, "0000000000000abc", info.SpanID)
	assert.False(t, info.Sampled)

	for _, header := range []string{"", "nope", "short/1", "105445aa7843bc8bf206b12000100000/", "105445aa7843bc8bf206b12000100000/zz"} {
		_, _, ok := parseCloudTraceContext(header)
		assert.False(t, ok, header)
	}
}

func TestTraceMiddlewareStoresTraceInfo(t *testing.T) {
	var got requestctx.TraceInfo
	handler := TraceMiddleware("demo-project")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = requestctx.Trace(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(cloudTraceHeader, "105445aa7843bc8bf206b12000100000/1;o=1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "105445aa7843bc8bf206b12000100000", got.TraceID)
	assert.Equal(t, "demo-project", got.ProjectID)
	assert.True(t, got.Sampled)
	assert.Contains(t, rec.Header().Get(cloudTraceHeader), "105445aa7843bc8bf206b12000100000/")
}

func TestRequestLoggerMiddlewareFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(InjectLoggerMiddleware(base))
	router.Use(auth.NewAuthenticator(nil).Resolve())
	router.Use(RequestLoggerMiddleware())
	router.Get("/orders/{orderID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("{}"))
	})

	req := httptest.NewRequest(http.MethodGet, "/orders/ord-1", nil)
	req.Header.Set("X-Session-Key", "guest-0001")
	router.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "/orders/{orderID}", fields["route"])
	assert.EqualValues(t, http.StatusConflict, fields["status"])
	assert.Equal(t, "session", fields["owner_kind"])
	assert.Equal(t, "guest-0001", fields["owner_ref"])
	assert.NotEmpty(t, fields["request_id"])
	assert.EqualValues(t, 2, fields["bytes"])
}

func TestRecoveryMiddlewareWritesJSON(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_server_error")
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestServiceLoggerPrefersRequestLogger(t *testing.T) {
	baseCore, baseLogs := observer.New(zapcore.DebugLevel)
	reqCore, reqLogs := observer.New(zapcore.DebugLevel)

	log := ServiceLogger(zap.New(baseCore), "orders")

	log(context.Background(), "order.created", map[string]any{"orderId": "ord-1"})
	require.Equal(t, 1, baseLogs.Len())
	entry := baseLogs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "orders", entry.LoggerName)
	assert.Equal(t, "ord-1", entry.ContextMap()["orderId"])

	ctx := requestctx.WithLogger(context.Background(), zap.New(reqCore))
	log(ctx, "order.hook.failed", map[string]any{"error": errors.New("hook down")})
	assert.Equal(t, 1, baseLogs.Len())
	require.Equal(t, 1, reqLogs.Len())
	entry = reqLogs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "hook down", entry.ContextMap()["error"])
	assert.Equal(t, "order.hook.failed", entry.ContextMap()["event"])
}

func TestArchiveMetricsNilSafe(t *testing.T) {
	metrics := NewArchiveMetrics(noop.NewMeterProvider().Meter("test"), nil)
	metrics.RecordArchived(context.Background())
	metrics.RecordArchiveFailure(context.Background(), "invalid_state")

	var empty *ArchiveMetrics
	empty.RecordArchived(context.Background())
	empty.RecordArchiveFailure(context.Background(), "x")
}

func TestSanitizeHelpers(t *testing.T) {
	assert.Equal(t, "/", SanitizeRoute(""))
	assert.Equal(t, "GET", SanitizeMethod("GE\x00T"))
	assert.Len(t, SanitizeOwnerRef(string(make([]byte, 100))), 0)
	long := "abcdefghij"
	for len(long) < 100 {
		long += long
	}
	assert.Len(t, SanitizeOwnerRef(long), 64)
}
