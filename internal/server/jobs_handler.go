package server

import (
	"net/http"

	"github.com/ternarybob/hubscout/internal/apperrors"
)

// handleJobsCollection handles GET /v1/jobs.
func (s *Server) handleJobsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	list, err := s.service.ListJobs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "jobs": list})
}

// handleJobItem routes GET /v1/jobs/{id} and
// POST /v1/jobs/{id}/{pause|resume|stop}.
func (s *Server) handleJobItem(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r, "/v1/jobs/")
	if len(segs) == 0 {
		writeError(w, apperrors.NewInvalidInput("path", "job id is required"))
		return
	}
	id := segs[0]

	if len(segs) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		job, err := s.service.GetJob(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "job": job})
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	switch segs[1] {
	case "pause":
		err = s.service.PauseJob(r.Context(), id)
	case "resume":
		err = s.service.ResumeJob(r.Context(), id)
	case "stop":
		err = s.service.StopJob(r.Context(), id)
	default:
		writeError(w, apperrors.NewInvalidInput("action", "must be one of pause, resume, stop"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
