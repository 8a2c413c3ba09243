// Package facade is the Service API of spec §6: getAvailability,
// runOperation, runSequencePreset, runSequenceConfig, startOperation, and
// job control, composed over internal/operations, internal/sequence, and
// internal/jobs so the HTTP surface and any future CLI consume the same
// entry points.
package facade

import (
	"context"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/apperrors"
	"github.com/ternarybob/hubscout/internal/common"
	"github.com/ternarybob/hubscout/internal/domainproc"
	"github.com/ternarybob/hubscout/internal/jobs"
	"github.com/ternarybob/hubscout/internal/models"
	"github.com/ternarybob/hubscout/internal/operations"
	"github.com/ternarybob/hubscout/internal/sequence"
)

// SequencePresetInfo describes one available named sequence, per
// getAvailability's sequencePresets entry.
type SequencePresetInfo struct {
	Name            string           `json:"name"`
	StepCount       int              `json:"stepCount"`
	ContinueOnError bool             `json:"continueOnError"`
	Steps           []StepSummary    `json:"steps"`
}

// StepSummary is one step's operation/label pair, stripped of overrides.
type StepSummary struct {
	Operation string `json:"operation"`
	Label     string `json:"label,omitempty"`
}

// Availability is the response shape of getAvailability.
type Availability struct {
	Operations      []operations.OperationInfo `json:"operations"`
	SequencePresets []SequencePresetInfo       `json:"sequencePresets"`
}

// SequenceRunRequest is runSequencePreset/runSequenceConfig's shared input.
type SequenceRunRequest struct {
	StartURL        string
	SharedOverrides map[string]any
	StepOverrides   map[string]map[string]any
	ContinueOnError *bool
	TaskID          string
}

// ConfigRunRequest additionally names the file-backed config to load.
type ConfigRunRequest struct {
	SequenceRunRequest
	ConfigName          string
	ConfigDir           string
	ConfigHost          string
	ConfigCliOverrides  map[string]any
}

// Service is the single composition point the HTTP handlers and any CLI
// entrypoint call into.
type Service struct {
	ops       *operations.Registry
	runner    *sequence.Runner
	loader    *sequence.Loader
	presets   map[string]*models.SequenceConfig
	playbooks sequence.PlaybookProvider
	config    sequence.ConfigProvider
	jobReg    *jobs.Registry
	logger    arbor.ILogger
	configDir string
}

// New builds the Service API surface over already-constructed components.
func New(ops *operations.Registry, runner *sequence.Runner, loader *sequence.Loader, jobReg *jobs.Registry, playbooks sequence.PlaybookProvider, configProvider sequence.ConfigProvider, configDir string, logger arbor.ILogger) *Service {
	return &Service{
		ops:       ops,
		runner:    runner,
		loader:    loader,
		presets:   sequence.DefaultPresets(),
		playbooks: playbooks,
		config:    configProvider,
		jobReg:    jobReg,
		logger:    logger,
		configDir: configDir,
	}
}

// GetAvailability lists every registered operation and sequence preset.
func (s *Service) GetAvailability() Availability {
	presetInfos := make([]SequencePresetInfo, 0, len(s.presets))
	for name, cfg := range s.presets {
		steps := make([]StepSummary, 0, len(cfg.Steps))
		for _, st := range cfg.Steps {
			steps = append(steps, StepSummary{Operation: st.Operation, Label: st.Label})
		}
		presetInfos = append(presetInfos, SequencePresetInfo{
			Name: name, StepCount: len(cfg.Steps), ContinueOnError: cfg.ContinueOnError, Steps: steps,
		})
	}
	return Availability{Operations: s.ops.ListOperations(), SequencePresets: presetInfos}
}

// RunOperation runs one named operation synchronously.
func (s *Service) RunOperation(ctx context.Context, operationName, startURL string, overrides map[string]any) (*operations.Result, error) {
	return s.ops.RunOperation(ctx, operationName, startURL, overrides, nil)
}

// StartOperation enqueues one named operation for background execution
// through the job registry, per spec §6's "operation-job" mode.
func (s *Service) StartOperation(ctx context.Context, operationName, startURL string, overrides map[string]any) (*models.Job, error) {
	return s.jobReg.StartOperation(ctx, operationName, startURL, overrides, func(runCtx context.Context, control domainproc.JobControl) (any, error) {
		return s.ops.RunOperation(runCtx, operationName, startURL, overrides, control)
	})
}

// RunSequencePreset runs one of the built-in named sequences.
func (s *Service) RunSequencePreset(ctx context.Context, name string, req SequenceRunRequest) (*sequence.Result, error) {
	cfg, ok := s.presets[name]
	if !ok {
		return nil, apperrors.NewInvalidInput("sequenceName", fmt.Sprintf("unknown sequence preset %q", name))
	}

	resolved, err := s.loader.ResolvePreset(name, cfg, s.resolvers(req.StartURL, nil, req.SharedOverrides))
	if err != nil {
		return nil, err
	}
	return s.runSequence(ctx, resolved, req), nil
}

// RunSequenceConfig loads a sequence-config file from configDir (or the
// Service's default) and runs it, returning both the run result and the
// loader's source metadata.
func (s *Service) RunSequenceConfig(ctx context.Context, req ConfigRunRequest) (*sequence.Result, *models.SequenceMetadata, error) {
	dir := req.ConfigDir
	if dir == "" {
		dir = s.configDir
	}
	path, format, err := resolveConfigPath(dir, req.ConfigName)
	if err != nil {
		return nil, nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &apperrors.SequenceConfigError{Source: path, Reason: err.Error()}
	}

	var playbook map[string]any
	if s.playbooks != nil && req.ConfigHost != "" {
		playbook, _ = s.playbooks.Playbook(ctx, req.ConfigHost)
	}
	resolvers := s.resolvers(req.StartURL, playbook, req.SharedOverrides)
	if req.ConfigCliOverrides != nil {
		resolvers["cli"] = sequence.NewCLIResolver(req.StartURL, req.SharedOverrides, req.ConfigCliOverrides)
	}

	cfg, err := s.loader.Load(path, raw, format, resolvers)
	if err != nil {
		return nil, nil, err
	}
	result := s.runSequence(ctx, cfg, req.SequenceRunRequest)
	return result, &cfg.Metadata, nil
}

func (s *Service) runSequence(ctx context.Context, cfg *models.SequenceConfig, req SequenceRunRequest) *sequence.Result {
	return s.runner.Run(ctx, sequence.Input{
		Config:          cfg,
		StartURL:        req.StartURL,
		SharedOverrides: req.SharedOverrides,
		StepOverrides:   req.StepOverrides,
		ContinueOnError: req.ContinueOnError,
		TaskID:          firstNonEmpty(req.TaskID, common.NewRunID()),
	}, nil)
}

func (s *Service) resolvers(startURL string, playbook, sharedOverrides map[string]any) map[string]sequence.Resolver {
	resolvers := map[string]sequence.Resolver{
		"cli": sequence.NewCLIResolver(startURL, sharedOverrides, nil),
	}
	if playbook != nil {
		resolvers["playbook"] = sequence.NewPlaybookResolver(playbook)
	}
	if s.config != nil {
		resolvers["config"] = sequence.NewConfigResolver(s.config.Snapshot(context.Background()))
	}
	return resolvers
}

// GetJob, ListJobs, PauseJob, ResumeJob, StopJob proxy straight through to
// the job registry; kept on Service so handlers depend on one surface.
func (s *Service) GetJob(ctx context.Context, id string) (*models.Job, error)  { return s.jobReg.Get(ctx, id) }
func (s *Service) ListJobs(ctx context.Context) ([]*models.Job, error)        { return s.jobReg.List(ctx) }
func (s *Service) PauseJob(ctx context.Context, id string) error              { return s.jobReg.Pause(ctx, id) }
func (s *Service) ResumeJob(ctx context.Context, id string) error             { return s.jobReg.Resume(ctx, id) }
func (s *Service) StopJob(ctx context.Context, id string) error               { return s.jobReg.Stop(ctx, id) }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
