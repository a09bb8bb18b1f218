package api

import (
	"context"
	"net/http"
	"time"

	respond "github.com/rochacaio/pokemon-backend/internal/api/respond"
	"github.com/rochacaio/pokemon-backend/internal/health"
)

// HealthHandler serves the liveness endpoints.
type HealthHandler struct {
	db        health.HealthPinger
	started   time.Time
	timeout   time.Duration
	isHealthy func() bool
}

// NewHealthHandler creates a health handler. db is pinged on every /health
// call; isHealthy reports the aggregated background checker state.
func NewHealthHandler(db health.HealthPinger, isHealthy func() bool, probeTimeout time.Duration) *HealthHandler {
	if isHealthy == nil {
		isHealthy = func() bool { return false }
	}
	return &HealthHandler{db: db, started: time.Now(), timeout: probeTimeout, isHealthy: isHealthy}
}

// BindServiceHealth swaps the aggregated health function.
func (h *HealthHandler) BindServiceHealth(f func() bool) { h.isHealthy = f }

// DBHealth handles GET /health. 200 when the database answers a ping, 503 otherwise.
func (h *HealthHandler) DBHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status, db, code := "ok", "up", http.StatusOK
	if err := h.db.HealthPing(ctx); err != nil {
		status, db, code = "error", "down", http.StatusServiceUnavailable
	}
	respond.WriteJSON(w, code, map[string]interface{}{
		"status":         status,
		"db":             db,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// CheckHealth handles GET /v0/health.
// Always returns 200; body reports healthy/unhealthy.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.isHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
