package sequence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/domainproc"
	"github.com/ternarybob/hubscout/internal/events"
	"github.com/ternarybob/hubscout/internal/models"
	"github.com/ternarybob/hubscout/internal/operations"
	"github.com/ternarybob/hubscout/internal/storage/memory"
)

// fakeOperations fails the named step and succeeds every other, modelling
// spec §8 scenario 6's two-step [A (ok), B (throws)] sequence.
type fakeOperations struct {
	failOperation string
	calls         []string
}

func (f *fakeOperations) RunOperation(ctx context.Context, name, startURL string, overrides map[string]any, control domainproc.JobControl) (*operations.Result, error) {
	f.calls = append(f.calls, name)
	if name == f.failOperation {
		return nil, errors.New("step exploded")
	}
	return &operations.Result{Status: "ok", ElapsedMs: 1}, nil
}

func twoStepConfig() *models.SequenceConfig {
	return &models.SequenceConfig{
		Name:     "A-then-B",
		StartURL: "https://news.example",
		Steps: []models.Step{
			{ID: "A", Operation: "opA"},
			{ID: "B", Operation: "opB"},
		},
	}
}

func TestRunAbortsOnFirstFailureWithoutContinueOnError(t *testing.T) {
	ops := &fakeOperations{failOperation: "opB"}
	bundle := memory.NewBundle()
	logger := arbor.NewLogger()
	bus := events.NewBus(bundle.Events, logger)
	r := NewRunner(ops, bus, logger)

	result := r.Run(context.Background(), Input{Config: twoStepConfig(), TaskID: "run-1"}, nil)

	assert.Equal(t, "aborted", result.Status)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, "ok", result.Steps[0].Status)
	assert.Equal(t, "error", result.Steps[1].Status)
	assert.Equal(t, "step exploded", result.Steps[1].Error.Message)
}

func TestRunContinuesAndReportsMixedWithContinueOnError(t *testing.T) {
	ops := &fakeOperations{failOperation: "opB"}
	bundle := memory.NewBundle()
	logger := arbor.NewLogger()
	bus := events.NewBus(bundle.Events, logger)
	r := NewRunner(ops, bus, logger)

	continueOnError := true
	result := r.Run(context.Background(), Input{Config: twoStepConfig(), ContinueOnError: &continueOnError, TaskID: "run-2"}, nil)

	assert.Equal(t, "mixed", result.Status)
	assert.Len(t, result.Steps, 2, "both steps should have run since continueOnError was set")
}

func TestRunAllStepsOkIsStatusOk(t *testing.T) {
	ops := &fakeOperations{failOperation: "none"}
	bundle := memory.NewBundle()
	logger := arbor.NewLogger()
	bus := events.NewBus(bundle.Events, logger)
	r := NewRunner(ops, bus, logger)

	result := r.Run(context.Background(), Input{Config: twoStepConfig(), TaskID: "run-3"}, nil)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, []string{"opA", "opB"}, ops.calls)
}

func TestRunResolvesEffectiveStartURLStepOverridesSequenceOverConfig(t *testing.T) {
	ops := &fakeOperations{failOperation: "none"}
	bundle := memory.NewBundle()
	logger := arbor.NewLogger()
	bus := events.NewBus(bundle.Events, logger)
	r := NewRunner(ops, bus, logger)

	cfg := &models.SequenceConfig{
		Name:     "override-check",
		StartURL: "https://config-level.example",
		Steps: []models.Step{
			{Operation: "opA", StartURL: "https://step-level.example"},
			{Operation: "opB"},
		},
	}
	result := r.Run(context.Background(), Input{Config: cfg, StartURL: "https://sequence-level.example", TaskID: "run-4"}, nil)

	assert.Equal(t, "https://step-level.example", result.Steps[0].StartURL, "step-level startUrl wins")
	assert.Equal(t, "https://sequence-level.example", result.Steps[1].StartURL, "falls back to sequence-level over config-level")
}

func TestMergeOverridesLaterWins(t *testing.T) {
	shared := map[string]any{"a": 1, "b": 1}
	step := map[string]any{"b": 2, "c": 2}
	runtime := map[string]any{"c": 3}
	merged := mergeOverrides(shared, step, runtime)
	assert.Equal(t, map[string]any{"a": 1, "b": 2, "c": 3}, merged)
}
