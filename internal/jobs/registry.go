// Package jobs owns the at-most-one-running job lifecycle of spec §4.11:
// start, get, list, pause, resume, stop, dispatched through a goqite-backed
// queue the way the teacher's job manager hands work to a durable queue
// rather than a bare goroutine pool.
package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"maragu.dev/goqite"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/apperrors"
	"github.com/ternarybob/hubscout/internal/common"
	"github.com/ternarybob/hubscout/internal/domainproc"
	"github.com/ternarybob/hubscout/internal/events"
	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/models"
)

// RunFunc performs the actual work of a job, cooperating with control for
// pause/resume/abort. Its return value is stashed on the job's Progress map
// under "result" on success.
type RunFunc func(ctx context.Context, control domainproc.JobControl) (any, error)

// runningJob is the channel-gated domainproc.JobControl for one in-flight
// job: WaitIfPaused blocks until Resume is called or ctx is cancelled,
// Aborted is a plain flag Stop sets.
type runningJob struct {
	mu       sync.Mutex
	paused   bool
	resumeCh chan struct{}
	abort    atomic.Bool
}

func newRunningJob() *runningJob {
	return &runningJob{resumeCh: make(chan struct{})}
}

func (j *runningJob) Aborted() bool { return j.abort.Load() }

func (j *runningJob) WaitIfPaused(ctx context.Context) error {
	j.mu.Lock()
	if !j.paused {
		j.mu.Unlock()
		return nil
	}
	ch := j.resumeCh
	j.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *runningJob) pause() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.paused {
		j.paused = true
		j.resumeCh = make(chan struct{})
	}
}

func (j *runningJob) resume() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.paused {
		j.paused = false
		close(j.resumeCh)
	}
}

func (j *runningJob) requestAbort() {
	j.abort.Store(true)
	j.resume() // unblock a paused WaitIfPaused so the abort is observed promptly
}

// Registry enforces the allowMultiJobs policy and drives job execution
// through a goqite queue, per spec §4.11 and §5.
type Registry struct {
	store      interfaces.JobStore
	queue      *goqite.Queue
	bus        *events.Bus
	logger     arbor.ILogger
	allowMulti bool

	mu       sync.Mutex
	running  map[string]*runningJob
	pending  map[string]RunFunc
	rootCtx  context.Context
	cancelFn context.CancelFunc
}

// NewRegistry builds a job registry backed by db's goqite schema (already
// initialized by sqlite.Open via goqite.Setup) and starts its dispatch loop.
func NewRegistry(store interfaces.JobStore, db *sql.DB, bus *events.Bus, logger arbor.ILogger, allowMulti bool) (*Registry, error) {
	queue, err := goqite.New(goqite.NewOpts{DB: db, Name: "hubscout_jobs"})
	if err != nil {
		return nil, fmt.Errorf("open job queue: %w", err)
	}
	rootCtx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		store:      store,
		queue:      queue,
		bus:        bus,
		logger:     logger,
		allowMulti: allowMulti,
		running:    make(map[string]*runningJob),
		pending:    make(map[string]RunFunc),
		rootCtx:    rootCtx,
		cancelFn:   cancel,
	}
	common.SafeGo(logger, "jobs.dispatcher", r.dispatchLoop)
	return r, nil
}

// Close stops the dispatch loop and cancels the context that running jobs
// receive; nothing new is dequeued.
func (r *Registry) Close() { r.cancelFn() }

// StartOperation enqueues run for background execution, rejecting the
// request with *apperrors.JobConflictError when a job is already running
// and allowMultiJobs is false.
func (r *Registry) StartOperation(ctx context.Context, operationName, startURL string, overrides map[string]any, run RunFunc) (*models.Job, error) {
	r.mu.Lock()
	if !r.allowMulti && len(r.running) > 0 {
		var runningID string
		for id := range r.running {
			runningID = id
			break
		}
		r.mu.Unlock()
		return nil, &apperrors.JobConflictError{RunningJobID: runningID}
	}

	job := &models.Job{
		ID:            common.NewJobID(),
		OperationName: operationName,
		StartURL:      startURL,
		Overrides:     overrides,
		Status:        models.JobRunning,
		CreatedAt:     time.Now(),
		StartedAt:     time.Now(),
	}
	r.running[job.ID] = newRunningJob()
	r.pending[job.ID] = run
	r.mu.Unlock()

	if err := r.store.Save(ctx, job); err != nil {
		r.forget(job.ID)
		return nil, fmt.Errorf("save job %s: %w", job.ID, err)
	}
	if _, err := r.queue.Send(ctx, goqite.Message{Body: []byte(job.ID)}); err != nil {
		r.forget(job.ID)
		return nil, fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}

	r.publish(job.ID, "job.started", map[string]any{"operation": operationName, "startUrl": startURL})
	return job, nil
}

func (r *Registry) dispatchLoop() {
	for {
		select {
		case <-r.rootCtx.Done():
			return
		default:
		}
		msg, err := r.queue.Receive(r.rootCtx)
		if err != nil {
			if r.rootCtx.Err() != nil {
				return
			}
			r.logger.Warn().Err(err).Msg("job queue receive failed")
			time.Sleep(time.Second)
			continue
		}
		if msg == nil {
			time.Sleep(200 * time.Millisecond)
			continue
		}
		jobID := string(msg.Body)
		r.execute(jobID)
		if err := r.queue.Delete(r.rootCtx, msg.ID); err != nil {
			r.logger.Warn().Err(err).Str("job_id", jobID).Msg("job queue delete failed")
		}
	}
}

func (r *Registry) execute(jobID string) {
	r.mu.Lock()
	control := r.running[jobID]
	run, ok := r.pending[jobID]
	delete(r.pending, jobID)
	r.mu.Unlock()
	if !ok || control == nil {
		return
	}

	result, err := run(r.rootCtx, control)

	job, found, getErr := r.store.Get(r.rootCtx, jobID)
	if getErr != nil || !found {
		r.logger.Warn().Str("job_id", jobID).Msg("job vanished from store before completion")
		r.forget(jobID)
		return
	}
	now := time.Now()
	job.FinishedAt = &now
	if err != nil {
		job.Status = models.JobFailed
		job.Progress = map[string]any{"error": err.Error()}
		r.publish(jobID, "job.failed", map[string]any{"error": err.Error()})
	} else {
		job.Status = models.JobCompleted
		job.Progress = map[string]any{"result": result}
		r.publish(jobID, "job.completed", map[string]any{"result": result})
	}
	if saveErr := r.store.Save(r.rootCtx, job); saveErr != nil {
		r.logger.Warn().Err(saveErr).Str("job_id", jobID).Msg("job completion save failed")
	}
	r.forget(jobID)
}

func (r *Registry) forget(jobID string) {
	r.mu.Lock()
	delete(r.running, jobID)
	delete(r.pending, jobID)
	r.mu.Unlock()
}

func (r *Registry) publish(jobID, eventType string, data map[string]any) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(r.rootCtx, models.TaskEvent{
		TaskType: "job", TaskID: jobID, EventType: eventType,
		Category: models.CategoryLifecycle, Severity: "info", Data: data, CreatedAt: time.Now(),
	}); err != nil {
		r.logger.Warn().Err(err).Str("job_id", jobID).Msg("job telemetry publish failed")
	}
}

// Get returns the job named by id, or *apperrors.JobNotFoundError.
func (r *Registry) Get(ctx context.Context, id string) (*models.Job, error) {
	job, found, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &apperrors.JobNotFoundError{JobID: id}
	}
	return job, nil
}

// List returns every known job, most recently created first is the
// store's responsibility; the registry does not re-sort.
func (r *Registry) List(ctx context.Context) ([]*models.Job, error) {
	return r.store.List(ctx)
}

// Pause cooperatively pauses a running job; the job observes the pause the
// next time its processing loop calls control.WaitIfPaused.
func (r *Registry) Pause(ctx context.Context, id string) error {
	return r.withRunning(ctx, id, func(job *models.Job, rj *runningJob) {
		rj.pause()
		job.Paused = true
		job.Status = models.JobPaused
	})
}

// Resume releases a paused job.
func (r *Registry) Resume(ctx context.Context, id string) error {
	return r.withRunning(ctx, id, func(job *models.Job, rj *runningJob) {
		rj.resume()
		job.Paused = false
		job.Status = models.JobRunning
	})
}

// Stop requests cooperative abort; the job stops at its next checkpoint.
func (r *Registry) Stop(ctx context.Context, id string) error {
	return r.withRunning(ctx, id, func(job *models.Job, rj *runningJob) {
		rj.requestAbort()
		job.AbortRequested = true
		job.Status = models.JobStopping
	})
}

func (r *Registry) withRunning(ctx context.Context, id string, mutate func(job *models.Job, rj *runningJob)) error {
	r.mu.Lock()
	rj, ok := r.running[id]
	r.mu.Unlock()
	if !ok {
		return &apperrors.JobNotFoundError{JobID: id}
	}
	job, found, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return &apperrors.JobNotFoundError{JobID: id}
	}
	mutate(job, rj)
	return r.store.Save(ctx, job)
}
