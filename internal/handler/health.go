package handler

import (
	"net/http"

	"github.com/priorityhub/inbox-platform/internal/natsbridge"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	mirror *natsbridge.Bridge
}

// NewHealthHandler creates a new health handler. The mirror is nil when
// the NATS event mirror is disabled.
func NewHealthHandler(mirror *natsbridge.Bridge) *HealthHandler {
	return &HealthHandler{mirror: mirror}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.mirror != nil && !h.mirror.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS mirror not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
