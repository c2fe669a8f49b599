package sse

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/worduel/internal/model"
)

// Hub routes events to the event stream of each connection
type Hub struct {
	clients map[model.ConnID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger
	closed  bool
}

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnID]*Client),
		logger:  logger.With(slog.String("component", "sse")),
	}
}

// Register adds a client. Events for its connection are buffered from here on.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(client.send)
		return
	}
	h.clients[client.conn] = client
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("sse client registered",
		slog.String("conn_id", string(client.conn)),
		slog.Int("total_clients", clientCount))
}

// Unregister removes a client and closes its buffer
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.conn]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.conn)
	close(client.send)
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("sse client unregistered",
		slog.String("conn_id", string(client.conn)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

// Notify encodes payload as JSON and queues it for conn. It never blocks:
// unknown connections and full buffers drop the event.
func (h *Hub) Notify(conn model.ConnID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("sse payload encoding failed",
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}
	h.send(conn, formatSSEMessage(event, string(data)))
}

func (h *Hub) send(conn model.ConnID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[conn]
	if !ok {
		h.logger.Debug("sse event for unknown connection", slog.String("conn_id", string(conn)))
		return
	}
	select {
	case client.send <- message:
	default:
		h.logger.Warn("sse message dropped - client buffer full",
			slog.String("conn_id", string(conn)))
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	clientCount := len(h.clients)
	for conn, client := range h.clients {
		close(client.send)
		delete(h.clients, conn)
	}
	h.logger.Info("sse hub stopped", slog.Int("disconnected_clients", clientCount))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE message with event name and data.
// Each line of data gets its own "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	lines := strings.Split(s, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
