// Package sse streams screen snapshots over Server-Sent Events, as a
// fallback for clients that cannot hold a WebSocket (corporate proxies,
// EventSource-only shells). Same payloads as the ws stream, one-way only.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const heartbeatPeriod = 25 * time.Second

// Stream is one active SSE connection.
type Stream struct {
	w       http.ResponseWriter
	r       *http.Request
	flusher http.Flusher
}

// New sets the SSE headers and wraps the connection. Returns nil when the
// ResponseWriter cannot flush.
func New(w http.ResponseWriter, r *http.Request) *Stream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return nil
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	return &Stream{w: w, r: r, flusher: flusher}
}

// Send writes one named event with a JSON payload.
func (s *Stream) Send(event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload)
	s.flusher.Flush()
	return nil
}

// comment writes a keepalive comment line.
func (s *Stream) comment(msg string) {
	fmt.Fprintf(s.w, ": %s\n\n", msg)
	s.flusher.Flush()
}

// Pump forwards payloads from updates to the client until the client
// disconnects, interleaving heartbeat comments so intermediaries keep the
// connection open. filter may be nil; when set, payloads it rejects are
// skipped.
func (s *Stream) Pump(updates <-chan interface{}, filter func(interface{}) bool) {
	if s == nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatPeriod)
	defer heartbeat.Stop()

	for {
		select {
		case <-s.r.Context().Done():
			return
		case <-heartbeat.C:
			s.comment("keepalive")
		case payload, ok := <-updates:
			if !ok {
				return
			}
			if filter != nil && !filter(payload) {
				continue
			}
			if err := s.Send("screen", payload); err != nil {
				return
			}
		}
	}
}
