package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/worduel/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidStake        = "INVALID_STAKE"
	CodeInvalidMode         = "INVALID_MODE"
	CodeAlreadyQueued       = "ALREADY_QUEUED"
	CodeAlreadyInMatch      = "ALREADY_IN_MATCH"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeInvalidGuess        = "INVALID_GUESS"
	CodeUnknownWord         = "UNKNOWN_WORD"
	CodeNoGuessesLeft       = "NO_GUESSES_LEFT"
	CodeNotConnected        = "NOT_CONNECTED"
	CodeAlreadyConnected    = "ALREADY_CONNECTED"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeProfileNotFound     = "PROFILE_NOT_FOUND"
	CodeUnavailable         = "UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Matchmaking
	case errors.Is(err, model.ErrInvalidStake):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidStake, "Stake must be between 10 and 500"}}
	case errors.Is(err, model.ErrInvalidMode):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidMode, "Mode must be duel or sprint"}}
	case errors.Is(err, model.ErrAlreadyQueued):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyQueued, "Already searching for a match"}}
	case errors.Is(err, model.ErrAlreadyInMatch):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInMatch, "Already in a match"}}
	case errors.Is(err, model.ErrInsufficientBalance):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientBalance, "Insufficient balance"}}

	// Guesses
	case errors.Is(err, model.ErrInvalidGuessLength):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidGuess, "Guess must be 5 letters"}}
	case errors.Is(err, model.ErrUnknownWord):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownWord, "Not in word list"}}
	case errors.Is(err, model.ErrNoGuessesLeft):
		return &httpError{http.StatusConflict, APIError{CodeNoGuessesLeft, "No guesses left this round"}}

	// Sessions
	case errors.Is(err, model.ErrNotConnected):
		return &httpError{http.StatusConflict, APIError{CodeNotConnected, "No open event stream for this player"}}
	case errors.Is(err, model.ErrAlreadyConnected):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyConnected, "Player already has an open event stream"}}
	case errors.Is(err, model.ErrNotAuthenticated):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}
	case errors.Is(err, model.ErrProfileNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeProfileNotFound, "Profile not found"}}

	case errors.Is(err, model.ErrShuttingDown):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeUnavailable, "Server is shutting down"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
