package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/requestctx"
)

func TestWriteErrorIncludesRequestAndTraceIDs(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{TraceID: "trace-1"})
	rec := httptest.NewRecorder()

	WriteError(ctx, rec, NewError("invalid_state", "order cannot move\nfrom paid", http.StatusConflict))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_state", body["error"])
	assert.Equal(t, "order cannot move from paid", body["message"])
	assert.Equal(t, float64(http.StatusConflict), body["status"])
	assert.Equal(t, "req-1", body["request_id"])
	assert.Equal(t, "trace-1", body["trace_id"])
}

func TestNewErrorDefaultsStatus(t *testing.T) {
	err := NewError("boom", "failed", 0)
	assert.Equal(t, http.StatusInternalServerError, err.Status)

	rec := httptest.NewRecorder()
	WriteError(context.Background(), rec, Error{Code: "x"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
