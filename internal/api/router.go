package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/worduel/internal/api/handler"
	"github.com/mcoot/worduel/internal/api/middleware"
	"github.com/mcoot/worduel/internal/api/sse"
	"github.com/mcoot/worduel/internal/dependencies/random"
	"github.com/mcoot/worduel/internal/services/coordinator"
	"github.com/mcoot/worduel/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Coordinator *coordinator.Coordinator
	Sessions    *session.Directory
	Hub         *sse.Hub
	Random      random.Random
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.Coordinator)
	matchHandler := handler.NewMatchHandler(cfg.Coordinator)
	healthHandler := handler.NewHealthHandler(cfg.Coordinator)
	eventsHandler := sse.NewHandler(cfg.Hub, cfg.Coordinator, cfg.Random, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.Sessions)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Tracing())

	// The stream authenticates itself so failures arrive as auth_error events
	api.Handle("/events", eventsHandler).Methods(http.MethodGet)

	players := api.PathPrefix("/players").Subrouter()
	players.Use(authMiddleware)
	players.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	players.HandleFunc("/me/matches", playerHandler.History).Methods(http.MethodGet)

	matches := api.PathPrefix("/match").Subrouter()
	matches.Use(authMiddleware)
	matches.HandleFunc("/search", matchHandler.Search).Methods(http.MethodPost)
	matches.HandleFunc("/search", matchHandler.Cancel).Methods(http.MethodDelete)
	matches.HandleFunc("/guess", matchHandler.Guess).Methods(http.MethodPost)

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	return r
}
