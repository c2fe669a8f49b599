package handler

import (
	"net/http"

	"github.com/mcoot/worduel/internal/api/apierr"
	"github.com/mcoot/worduel/internal/api/response"
	"github.com/mcoot/worduel/internal/services/coordinator"
)

// HealthHandler reports liveness and load
type HealthHandler struct {
	coordinator *coordinator.Coordinator
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(coordinator *coordinator.Coordinator) *HealthHandler {
	return &HealthHandler{coordinator: coordinator}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.coordinator.Stats(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Health{
		Status:        "ok",
		UsersOnline:   stats.UsersOnline,
		ActiveMatches: stats.ActiveMatches,
		QueueSize:     stats.QueueSize,
	})
}
