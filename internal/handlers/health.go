package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/httpx"
)

const readinessTimeout = 3 * time.Second

// ReadinessCheck reports whether a dependency is able to serve traffic.
type ReadinessCheck func(ctx context.Context) error

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	started time.Time
	ready   ReadinessCheck
}

// NewHealthHandlers constructs probes. A nil check always reports ready.
func NewHealthHandlers(ready ReadinessCheck) *HealthHandlers {
	return &HealthHandlers{started: time.Now(), ready: ready}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz runs the readiness check with a short deadline.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("not_ready", err.Error(), http.StatusServiceUnavailable))
			return
		}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ready"})
}
