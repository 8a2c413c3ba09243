package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/hubscout/internal/models"
)

// handleEvents streams every published TaskEvent as an SSE event, the way
// the teacher's SSE log handler flushes batches on a ticker with a
// heartbeat ping to keep idle connections alive.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.telemetry == nil {
		http.Error(w, "event streaming is disabled", http.StatusNotImplemented)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	flusher.Flush()

	events := make(chan models.TaskEvent, 256)
	unsubscribe := s.telemetry.Subscribe(func(_ context.Context, event models.TaskEvent) error {
		select {
		case events <- event:
		default:
			s.logger.Warn().Str("task_id", event.TaskID).Msg("sse subscriber buffer full, dropping event")
		}
		return nil
	})
	defer unsubscribe()

	pingTicker := time.NewTicker(15 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-events:
			sendEvent(w, flusher, "task", event)
		case <-pingTicker.C:
			sendEvent(w, flusher, "ping", map[string]any{"timestamp": time.Now()})
		}
	}
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, name string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\n", name)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
