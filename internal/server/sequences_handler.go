package server

import (
	"net/http"

	"github.com/ternarybob/hubscout/internal/apperrors"
	"github.com/ternarybob/hubscout/internal/facade"
)

type sequencePresetRequestBody struct {
	StartURL        string                    `json:"startUrl"`
	SharedOverrides map[string]any            `json:"sharedOverrides"`
	StepOverrides   map[string]map[string]any `json:"stepOverrides"`
	ContinueOnError *bool                     `json:"continueOnError"`
}

// handleSequencePresets routes POST /v1/sequences/presets/{name}/run.
func (s *Server) handleSequencePresets(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r, "/v1/sequences/presets/")
	if len(segs) != 2 || segs[1] != "run" {
		writeError(w, apperrors.NewInvalidInput("path", "expected /v1/sequences/presets/{name}/run"))
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := segs[0]

	var body sequencePresetRequestBody
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, apperrors.NewInvalidInput("body", err.Error()))
		return
	}

	result, err := s.service.RunSequencePreset(r.Context(), name, facade.SequenceRunRequest{
		StartURL:        body.StartURL,
		SharedOverrides: body.SharedOverrides,
		StepOverrides:   body.StepOverrides,
		ContinueOnError: body.ContinueOnError,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok", "mode": "sequence-preset", "sequence": name, "result": result,
	})
}

type sequenceConfigRequestBody struct {
	ConfigDir          string                    `json:"configDir"`
	ConfigHost         string                    `json:"configHost"`
	StartURL           string                    `json:"startUrl"`
	SharedOverrides    map[string]any            `json:"sharedOverrides"`
	StepOverrides      map[string]map[string]any `json:"stepOverrides"`
	ConfigCliOverrides map[string]any            `json:"configCliOverrides"`
	ContinueOnError    *bool                     `json:"continueOnError"`
}

// handleSequenceConfigs routes POST /v1/sequences/configs/{name}/run.
func (s *Server) handleSequenceConfigs(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r, "/v1/sequences/configs/")
	if len(segs) != 2 || segs[1] != "run" {
		writeError(w, apperrors.NewInvalidInput("path", "expected /v1/sequences/configs/{name}/run"))
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := segs[0]

	var body sequenceConfigRequestBody
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, apperrors.NewInvalidInput("body", err.Error()))
		return
	}

	result, metadata, err := s.service.RunSequenceConfig(r.Context(), facade.ConfigRunRequest{
		SequenceRunRequest: facade.SequenceRunRequest{
			StartURL:        body.StartURL,
			SharedOverrides: body.SharedOverrides,
			StepOverrides:   body.StepOverrides,
			ContinueOnError: body.ContinueOnError,
		},
		ConfigName:         name,
		ConfigDir:          body.ConfigDir,
		ConfigHost:         body.ConfigHost,
		ConfigCliOverrides: body.ConfigCliOverrides,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok", "mode": "sequence-config", "sequenceConfig": name,
		"result": result, "metadata": metadata,
	})
}
