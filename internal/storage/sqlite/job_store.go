package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ternarybob/hubscout/internal/models"
)

// JobStore persists job metadata for the job registry, grounded on the
// same single-writer/retry-on-busy convention the rest of this package
// uses.
type JobStore struct {
	db *DB
}

func NewJobStore(db *DB) *JobStore { return &JobStore{db: db} }

func (s *JobStore) Save(ctx context.Context, j *models.Job) error {
	overrides, err := json.Marshal(j.Overrides)
	if err != nil {
		return err
	}
	progress, err := json.Marshal(j.Progress)
	if err != nil {
		return err
	}

	var finishedAt any
	if j.FinishedAt != nil {
		finishedAt = j.FinishedAt.UnixMilli()
	}

	return retryWithExponentialBackoff(func() error {
		_, err := s.db.Conn().ExecContext(ctx, `
			INSERT INTO jobs (id, operation_name, start_url, overrides, status, created_at, started_at,
				finished_at, progress, abort_requested, paused)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(id) DO UPDATE SET
				status=excluded.status, started_at=excluded.started_at, finished_at=excluded.finished_at,
				progress=excluded.progress, abort_requested=excluded.abort_requested, paused=excluded.paused
		`, j.ID, j.OperationName, j.StartURL, string(overrides), string(j.Status), j.CreatedAt.UnixMilli(),
			startedAtOrNil(j), finishedAt, string(progress), j.AbortRequested, j.Paused)
		return err
	})
}

func (s *JobStore) Get(ctx context.Context, id string) (*models.Job, bool, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT id, operation_name, start_url, overrides, status, created_at, started_at, finished_at,
			progress, abort_requested, paused
		FROM jobs WHERE id=?
	`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return j, true, nil
}

func (s *JobStore) List(ctx context.Context) ([]*models.Job, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, operation_name, start_url, overrides, status, created_at, started_at, finished_at,
			progress, abort_requested, paused
		FROM jobs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanJob(row rowScanner) (*models.Job, error) {
	var j models.Job
	var overrides, progress, status string
	var createdAt int64
	var startedAt, finishedAt sql.NullInt64

	if err := row.Scan(&j.ID, &j.OperationName, &j.StartURL, &overrides, &status, &createdAt,
		&startedAt, &finishedAt, &progress, &j.AbortRequested, &j.Paused); err != nil {
		return nil, err
	}

	j.Status = models.JobStatus(status)
	j.CreatedAt = timeFromMillis(createdAt)
	if startedAt.Valid {
		j.StartedAt = timeFromMillis(startedAt.Int64)
	}
	if finishedAt.Valid {
		t := timeFromMillis(finishedAt.Int64)
		j.FinishedAt = &t
	}
	if overrides != "" {
		_ = json.Unmarshal([]byte(overrides), &j.Overrides)
	}
	if progress != "" {
		_ = json.Unmarshal([]byte(progress), &j.Progress)
	}
	return &j, nil
}

func startedAtOrNil(j *models.Job) any {
	if j.StartedAt.IsZero() {
		return nil
	}
	return j.StartedAt.UnixMilli()
}
