package sequence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/domainproc"
	"github.com/ternarybob/hubscout/internal/events"
	"github.com/ternarybob/hubscout/internal/models"
	"github.com/ternarybob/hubscout/internal/operations"
)

// OperationRunner is the subset of operations.Registry the sequence runner
// depends on; satisfied by *operations.Registry.
type OperationRunner interface {
	RunOperation(ctx context.Context, name, startURL string, overrides map[string]any, control domainproc.JobControl) (*operations.Result, error)
}

// StepError carries the captured exception for a failed step, per spec
// §4.9 step 5 ("capture {message, stack}").
type StepError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// StepResult is one step's timing, overrides, status, and result.
type StepResult struct {
	StepID    string             `json:"stepId"`
	Operation string             `json:"operation"`
	Label     string             `json:"label,omitempty"`
	Index     int                `json:"sequenceIndex"`
	StartURL  string             `json:"startUrl"`
	Overrides map[string]any     `json:"overrides"`
	Status    string             `json:"status"` // ok | error
	ElapsedMs int64              `json:"elapsedMs"`
	Result    *operations.Result `json:"result,omitempty"`
	Error     *StepError         `json:"error,omitempty"`
}

// Result is the terminal outcome of one sequence run.
type Result struct {
	Status      string       `json:"status"` // ok | aborted | mixed
	Steps       []StepResult `json:"steps"`
	StartedAt   time.Time    `json:"startedAt"`
	CompletedAt time.Time    `json:"completedAt"`
	DurationMs  int64        `json:"durationMs"`
}

// Input is everything one sequence run needs, per spec §4.9.
type Input struct {
	Config          *models.SequenceConfig
	StartURL        string
	SharedOverrides map[string]any
	// StepOverrides is looked up by step.id, then step.operation, then the
	// step's 0-based index (as a string) — the "runtimeOverrides[step.id |
	// step.operation | index]" lookup order of spec §4.9 step 3.
	StepOverrides   map[string]map[string]any
	ContinueOnError *bool
	TaskID          string
}

// Runner is the strictly sequential step executor of spec §4.9, grounded
// on the teacher's internal/jobs/job_definition_orchestrator.go loop.
type Runner struct {
	operations OperationRunner
	telemetry  *events.Bus
	logger     arbor.ILogger
}

// NewRunner builds a sequence runner over ops, publishing step lifecycle
// events to telemetry (may be nil to disable telemetry).
func NewRunner(ops OperationRunner, telemetry *events.Bus, logger arbor.ILogger) *Runner {
	return &Runner{operations: ops, telemetry: telemetry, logger: logger}
}

// Run executes every step of in.Config in order, honoring the
// continue-on-error policy and cooperative abort signalled by control.
func (r *Runner) Run(ctx context.Context, in Input, control domainproc.JobControl) *Result {
	result := &Result{StartedAt: time.Now()}
	aborted := false
	anyError := false

	for i, step := range in.Config.Steps {
		stepID := step.ID
		if stepID == "" {
			stepID = fmt.Sprintf("%s#%d", step.Operation, i)
		}
		startURL := firstNonEmpty(step.StartURL, in.StartURL, in.Config.StartURL)
		overrides := mergeOverrides(in.SharedOverrides, step.Overrides, lookupRuntimeOverrides(in.StepOverrides, stepID, step.Operation, i))

		r.emit(ctx, in.TaskID, "sequence.step.start", map[string]any{
			"step": stepID, "index": i, "overrides": overrides, "startUrl": startURL,
		})

		stepStart := time.Now()
		opResult, err := r.operations.RunOperation(ctx, step.Operation, startURL, overrides, control)
		elapsed := time.Since(stepStart).Milliseconds()

		sr := StepResult{
			StepID: stepID, Operation: step.Operation, Label: step.Label,
			Index: i, StartURL: startURL, Overrides: overrides, ElapsedMs: elapsed,
		}

		if err != nil {
			sr.Status = "error"
			sr.Error = &StepError{Message: err.Error()}
			anyError = true
			r.emit(ctx, in.TaskID, "sequence.step.failure", map[string]any{"step": stepID, "error": err.Error()})
		} else {
			sr.Status = "ok"
			sr.Result = opResult
			r.emit(ctx, in.TaskID, "sequence.step.success", map[string]any{"step": stepID, "result": opResult})
		}
		result.Steps = append(result.Steps, sr)

		if sr.Status == "error" {
			callLevel := in.ContinueOnError != nil && *in.ContinueOnError
			if !(step.ContinueOnError || in.Config.ContinueOnError || callLevel) {
				aborted = true
				break
			}
		}
		if control != nil && control.Aborted() {
			aborted = true
			break
		}
	}

	switch {
	case aborted:
		result.Status = "aborted"
	case anyError:
		result.Status = "mixed"
	default:
		result.Status = "ok"
	}
	result.CompletedAt = time.Now()
	result.DurationMs = result.CompletedAt.Sub(result.StartedAt).Milliseconds()
	r.emit(ctx, in.TaskID, "sequence.completed", map[string]any{"status": result.Status, "stepCount": len(result.Steps)})
	return result
}

func (r *Runner) emit(ctx context.Context, taskID, eventType string, data map[string]any) {
	if r.telemetry == nil {
		return
	}
	if err := r.telemetry.PublishSync(ctx, models.TaskEvent{
		TaskType: "sequence", TaskID: taskID, EventType: eventType,
		Category: models.CategoryProgress, Severity: "info", Data: data, CreatedAt: time.Now(),
	}); err != nil {
		r.logger.Warn().Err(err).Str("task_id", taskID).Msg("sequence telemetry publish failed")
	}
}

func mergeOverrides(maps ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func lookupRuntimeOverrides(m map[string]map[string]any, stepID, operation string, index int) map[string]any {
	if m == nil {
		return nil
	}
	if v, ok := m[stepID]; ok {
		return v
	}
	if v, ok := m[operation]; ok {
		return v
	}
	if v, ok := m[strconv.Itoa(index)]; ok {
		return v
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
