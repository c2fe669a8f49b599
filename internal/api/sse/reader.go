package sse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// Event is one decoded server-sent event
type Event struct {
	Name string
	Data string
}

// Decode unmarshals the event's JSON data into v
func (e Event) Decode(v any) error {
	return json.Unmarshal([]byte(e.Data), v)
}

// Reader decodes an event stream. Comments, retry hints and id lines are skipped.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader reads events from r
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next blocks until a complete event arrives. It returns io.EOF when the
// stream ends between events.
func (r *Reader) Next() (Event, error) {
	var (
		event Event
		data  []string
		seen  bool
	)
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if !seen {
				continue
			}
			event.Data = strings.Join(data, "\n")
			return event, nil
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event.Name = value
			seen = true
		case "data":
			data = append(data, value)
			seen = true
		}
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	if seen {
		return Event{}, io.ErrUnexpectedEOF
	}
	return Event{}, io.EOF
}

// ParseMessage decodes a single formatted message as queued on a Client
func ParseMessage(message []byte) (Event, error) {
	return NewReader(bytes.NewReader(message)).Next()
}
