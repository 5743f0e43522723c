package handler

import (
	"net/http"
	"time"

	"github.com/openclaw/pairing-relay-go/internal/notify"
	"github.com/openclaw/pairing-relay-go/internal/service"
)

type HealthHandler struct {
	registry *service.Registry
	hub      *notify.Hub
}

func NewHealthHandler(registry *service.Registry, hub *notify.Hub) *HealthHandler {
	return &HealthHandler{registry: registry, hub: hub}
}

// GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"activeCodes": h.registry.Len(),
		"subscribers": h.hub.TotalSubscribers(),
	})
}
