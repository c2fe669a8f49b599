package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/worduel/internal/api/apierr"
	"github.com/mcoot/worduel/internal/api/middleware"
	"github.com/mcoot/worduel/internal/api/response"
	"github.com/mcoot/worduel/internal/services/coordinator"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	coordinator *coordinator.Coordinator
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(coordinator *coordinator.Coordinator) *PlayerHandler {
	return &PlayerHandler{
		coordinator: coordinator,
	}
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	username := middleware.MustGetUsername(r.Context())

	view, err := h.coordinator.Profile(r.Context(), username)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, view)
}

// History handles GET /api/v1/players/me/matches
func (h *PlayerHandler) History(w http.ResponseWriter, r *http.Request) {
	username := middleware.MustGetUsername(r.Context())

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			apierr.WriteError(w, apierr.NewInvalidRequestError("limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	records, err := h.coordinator.MatchHistory(r.Context(), username, limit)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	resp := response.MatchHistory{Matches: make([]response.MatchSummary, len(records))}
	for i, rec := range records {
		resp.Matches[i] = response.MatchSummaryFromModel(rec, username)
	}
	response.JSON(w, http.StatusOK, resp)
}
