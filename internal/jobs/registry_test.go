package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/apperrors"
	"github.com/ternarybob/hubscout/internal/domainproc"
	"github.com/ternarybob/hubscout/internal/events"
	"github.com/ternarybob/hubscout/internal/models"
	"github.com/ternarybob/hubscout/internal/storage/sqlite"
)

func newTestRegistry(t *testing.T, allowMulti bool) (*Registry, func()) {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := sqlite.Open(logger, sqlite.Options{Path: filepath.Join(t.TempDir(), "jobs.db")})
	require.NoError(t, err)

	store := sqlite.NewJobStore(db)
	bus := events.NewBus(sqlite.NewEventStore(db), logger)
	reg, err := NewRegistry(store, db.Conn(), bus, logger, allowMulti)
	require.NoError(t, err)
	return reg, func() { reg.Close(); db.Close() }
}

func waitForStatus(t *testing.T, reg *Registry, jobID string, want models.JobStatus) *models.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := reg.Get(context.Background(), jobID)
		require.NoError(t, err)
		if job.Status == want {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return nil
}

func TestStartOperationRunsToCompletion(t *testing.T) {
	reg, cleanup := newTestRegistry(t, true)
	defer cleanup()

	job, err := reg.StartOperation(context.Background(), "crawlPlaceHubs", "https://news.example", nil,
		func(ctx context.Context, control domainproc.JobControl) (any, error) {
			return map[string]any{"discovered": 3}, nil
		})
	require.NoError(t, err)

	completed := waitForStatus(t, reg, job.ID, models.JobCompleted)
	assert.Equal(t, "crawlPlaceHubs", completed.OperationName)
	assert.NotNil(t, completed.FinishedAt)
}

func TestStartOperationRejectsSecondWhenSingleJobOnly(t *testing.T) {
	reg, cleanup := newTestRegistry(t, false)
	defer cleanup()

	block := make(chan struct{})
	_, err := reg.StartOperation(context.Background(), "crawlPlaceHubs", "https://news.example", nil,
		func(ctx context.Context, control domainproc.JobControl) (any, error) {
			<-block
			return nil, nil
		})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond) // let the dispatcher pick it up

	_, err = reg.StartOperation(context.Background(), "discoverTopicHubs", "https://news.example", nil,
		func(ctx context.Context, control domainproc.JobControl) (any, error) { return nil, nil })
	require.Error(t, err)
	assert.IsType(t, &apperrors.JobConflictError{}, err)

	close(block)
}

func TestGetUnknownJobIsJobNotFoundError(t *testing.T) {
	reg, cleanup := newTestRegistry(t, true)
	defer cleanup()

	_, err := reg.Get(context.Background(), "job_does-not-exist")
	require.Error(t, err)
	assert.IsType(t, &apperrors.JobNotFoundError{}, err)
}

func TestPauseResumeGatesRunningJob(t *testing.T) {
	reg, cleanup := newTestRegistry(t, true)
	defer cleanup()

	reached := make(chan struct{})
	proceed := make(chan struct{})
	resumed := make(chan struct{})
	job, err := reg.StartOperation(context.Background(), "crawlPlaceHubs", "https://news.example", nil,
		func(ctx context.Context, control domainproc.JobControl) (any, error) {
			close(reached)
			<-proceed
			if err := control.WaitIfPaused(ctx); err != nil {
				return nil, err
			}
			close(resumed)
			return nil, nil
		})
	require.NoError(t, err)

	select {
	case <-reached:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}

	require.NoError(t, reg.Pause(context.Background(), job.ID))
	paused := waitForStatus(t, reg, job.ID, models.JobPaused)
	assert.True(t, paused.Paused)
	close(proceed)

	select {
	case <-resumed:
		t.Fatal("job proceeded past the pause checkpoint before Resume")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, reg.Resume(context.Background(), job.ID))
	waitForStatus(t, reg, job.ID, models.JobCompleted)
}

func TestStopRequestsAbort(t *testing.T) {
	reg, cleanup := newTestRegistry(t, true)
	defer cleanup()

	job, err := reg.StartOperation(context.Background(), "crawlPlaceHubs", "https://news.example", nil,
		func(ctx context.Context, control domainproc.JobControl) (any, error) {
			for !control.Aborted() {
				time.Sleep(10 * time.Millisecond)
			}
			return nil, nil
		})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, reg.Stop(context.Background(), job.ID))
	waitForStatus(t, reg, job.ID, models.JobCompleted)
}
