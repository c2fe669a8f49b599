package mocks

import (
	"sync"

	"github.com/mcoot/worduel/internal/model"
)

// Event is one notification captured by MockNotifier
type Event struct {
	Conn    model.ConnID
	Name    string
	Payload any
}

// MockNotifier records every notification it is given
type MockNotifier struct {
	mu     sync.Mutex
	events []Event
}

// NewMockNotifier creates an empty MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Notify records the event
func (n *MockNotifier) Notify(conn model.ConnID, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Event{Conn: conn, Name: event, Payload: payload})
}

// Events returns every event sent to conn, oldest first
func (n *MockNotifier) Events(conn model.ConnID) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Event
	for _, e := range n.events {
		if e.Conn == conn {
			out = append(out, e)
		}
	}
	return out
}

// Names returns the names of the events sent to conn, oldest first
func (n *MockNotifier) Names(conn model.ConnID) []string {
	var names []string
	for _, e := range n.Events(conn) {
		names = append(names, e.Name)
	}
	return names
}

// Last returns the most recent event with the given name sent to conn
func (n *MockNotifier) Last(conn model.ConnID, name string) (Event, bool) {
	events := n.Events(conn)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Name == name {
			return events[i], true
		}
	}
	return Event{}, false
}

// Count returns how many events with the given name were sent to conn
func (n *MockNotifier) Count(conn model.ConnID, name string) int {
	count := 0
	for _, e := range n.Events(conn) {
		if e.Name == name {
			count++
		}
	}
	return count
}
