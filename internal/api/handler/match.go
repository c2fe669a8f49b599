package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mcoot/worduel/internal/api/apierr"
	"github.com/mcoot/worduel/internal/api/middleware"
	"github.com/mcoot/worduel/internal/api/request"
	"github.com/mcoot/worduel/internal/api/response"
	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/services/coordinator"
)

// MatchHandler handles matchmaking and guess endpoints. Results are
// delivered on the caller's event stream.
type MatchHandler struct {
	coordinator *coordinator.Coordinator
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(coordinator *coordinator.Coordinator) *MatchHandler {
	return &MatchHandler{
		coordinator: coordinator,
	}
}

func callerFrom(r *http.Request) coordinator.Caller {
	return coordinator.Caller{
		Conn:     model.ConnID(r.Header.Get(request.ConnectionHeader)),
		Username: middleware.MustGetUsername(r.Context()),
	}
}

var accepted = response.Accepted{Status: "accepted"}

// Search handles POST /api/v1/match/search
func (h *MatchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req request.FindMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	mode := model.Mode(strings.ToLower(req.Mode))
	if err := h.coordinator.FindMatch(r.Context(), callerFrom(r), req.Stake, mode); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, accepted)
}

// Cancel handles DELETE /api/v1/match/search
func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.CancelSearch(r.Context(), callerFrom(r)); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Guess handles POST /api/v1/match/guess
func (h *MatchHandler) Guess(w http.ResponseWriter, r *http.Request) {
	var req request.GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Word == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("word is required"))
		return
	}

	if err := h.coordinator.SubmitGuess(r.Context(), callerFrom(r), req.Word); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, accepted)
}
