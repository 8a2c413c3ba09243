package server

import (
	"net/http"

	"github.com/ternarybob/hubscout/internal/apperrors"
)

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	avail := s.service.GetAvailability()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"availability": avail,
		"totals": map[string]int{
			"operations":      len(avail.Operations),
			"sequencePresets": len(avail.SequencePresets),
		},
	})
}

type operationRequestBody struct {
	StartURL  string         `json:"startUrl"`
	Overrides map[string]any `json:"overrides"`
}

// handleOperations routes POST /v1/operations/{name}/run and
// POST /v1/operations/{name}/start.
func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r, "/v1/operations/")
	if len(segs) != 2 {
		writeError(w, apperrors.NewInvalidInput("path", "expected /v1/operations/{name}/{run|start}"))
		return
	}
	name, action := segs[0], segs[1]
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body operationRequestBody
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, apperrors.NewInvalidInput("body", err.Error()))
		return
	}

	switch action {
	case "run":
		result, err := s.service.RunOperation(r.Context(), name, body.StartURL, body.Overrides)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok", "mode": "operation", "operation": name, "result": result,
		})
	case "start":
		job, err := s.service.StartOperation(r.Context(), name, body.StartURL, body.Overrides)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok", "mode": "operation-job", "jobId": job.ID, "job": job,
		})
	default:
		writeError(w, apperrors.NewInvalidInput("action", "must be \"run\" or \"start\""))
	}
}
