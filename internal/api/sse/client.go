package sse

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/worduel/internal/api/middleware"
	"github.com/mcoot/worduel/internal/dependencies/random"
	"github.com/mcoot/worduel/internal/model"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256

	// Upper bound on tearing down a closed stream
	disconnectTimeout = 5 * time.Second
)

// Client is one open event stream
type Client struct {
	conn        model.ConnID
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client
func NewClient(conn model.ConnID) *Client {
	return &Client{
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// Conn returns the connection id the client is registered under
func (c *Client) Conn() model.ConnID {
	return c.conn
}

// Messages yields formatted events until the client is unregistered
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Sessions is the connection lifecycle an event stream drives
type Sessions interface {
	Connect(ctx context.Context, conn model.ConnID) error
	Authenticate(ctx context.Context, conn model.ConnID, token string) (*model.ProfileView, error)
	Disconnect(ctx context.Context, conn model.ConnID) error
}

// Handler serves GET /events. Opening the stream connects and
// authenticates; closing it disconnects.
type Handler struct {
	hub      *Hub
	sessions Sessions
	random   random.Random
	logger   *slog.Logger
}

// NewHandler creates an event stream handler
func NewHandler(hub *Hub, sessions Sessions, random random.Random, logger *slog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		sessions: sessions,
		random:   random,
		logger:   logger.With(slog.String("component", "sse")),
	}
}

// ServeHTTP handles the SSE connection for a client
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	conn := model.ConnID(h.random.UUID())
	client := NewClient(conn)
	h.hub.Register(client)
	defer h.hub.Unregister(client)
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), disconnectTimeout)
		defer cancel()
		if err := h.sessions.Disconnect(ctx, conn); err != nil {
			h.logger.Warn("disconnect failed",
				slog.String("conn_id", string(conn)),
				slog.String("error", err.Error()))
		}
	}()

	_, _ = w.Write([]byte("retry: 3000\n\n"))
	flusher.Flush()

	if err := h.sessions.Connect(r.Context(), conn); err != nil {
		h.logger.Warn("connect failed", slog.String("error", err.Error()))
		return
	}
	if _, err := h.sessions.Authenticate(r.Context(), conn, middleware.ExtractToken(r)); err != nil {
		// Deliver the auth_error already queued, then hang up
		drain(w, flusher, client)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.Messages():
			if !ok {
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// drain writes whatever is already buffered for client
func drain(w http.ResponseWriter, flusher http.Flusher, client *Client) {
	for {
		select {
		case message, ok := <-client.Messages():
			if !ok {
				flusher.Flush()
				return
			}
			_, _ = w.Write(message)
		default:
			flusher.Flush()
			return
		}
	}
}
