// Package server wires the Service API onto net/http: an explicit
// http.ServeMux with manual path-suffix parsing for the :name/:id
// segments, the way the teacher's routes.go dispatches rather than
// reaching for a third-party router.
package server

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/common"
	"github.com/ternarybob/hubscout/internal/events"
	"github.com/ternarybob/hubscout/internal/facade"
)

// Server owns the v1 HTTP surface of spec §6.
type Server struct {
	mux       *http.ServeMux
	service   *facade.Service
	telemetry *events.Bus
	logger    arbor.ILogger
}

// New builds the full v1 route table over service, with /events streaming
// from telemetry (may be nil to disable the SSE endpoint).
func New(service *facade.Service, telemetry *events.Bus, logger arbor.ILogger) *Server {
	s := &Server{mux: http.NewServeMux(), service: service, telemetry: telemetry, logger: logger}
	s.routes()
	return s
}

// Handler returns the composed http.Handler, suitable for http.Server.
func (s *Server) Handler() http.Handler {
	return s.recoveryMiddleware(s.corsMiddleware(s.loggingMiddleware(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/events", s.handleEvents)
	s.mux.HandleFunc("/v1/availability", s.handleAvailability)
	s.mux.HandleFunc("/v1/jobs", s.handleJobsCollection)
	s.mux.HandleFunc("/v1/jobs/", s.handleJobItem)
	s.mux.HandleFunc("/v1/operations/", s.handleOperations)
	s.mux.HandleFunc("/v1/sequences/presets/", s.handleSequencePresets)
	s.mux.HandleFunc("/v1/sequences/configs/", s.handleSequenceConfigs)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "hubscout",
		"framework": "net/http",
		"version":   common.GetVersion(),
	})
}

// pathSegments splits r.URL.Path after prefix into its "/"-separated
// parts, the way the teacher's handlers parse /api/jobs/{id}/... suffixes.
func pathSegments(r *http.Request, prefix string) []string {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if tail == "" {
		return nil
	}
	return strings.Split(tail, "/")
}
