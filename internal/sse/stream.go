// Package sse writes server-sent events onto an HTTP response.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrStreamingUnsupported = errors.New("streaming not supported")

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// Open sets the event-stream headers. It fails when w cannot flush, before
// anything is written.
func Open(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, flusher: flusher}, nil
}

func (s *Stream) Send(eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.SendRaw(Event{Type: eventType, Data: jsonData})
}

func (s *Stream) SendRaw(event Event) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Ping writes a comment line that keeps proxies from idling the stream out.
func (s *Stream) Ping() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
