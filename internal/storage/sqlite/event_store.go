package sqlite

import (
	"context"
	"encoding/json"

	"github.com/ternarybob/hubscout/internal/models"
)

// EventStore persists the TaskEvent time series appended by the telemetry
// bus, per spec §4.11(b).
type EventStore struct {
	db *DB
}

func NewEventStore(db *DB) *EventStore { return &EventStore{db: db} }

func (s *EventStore) Append(ctx context.Context, e *models.TaskEvent) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	return retryWithExponentialBackoff(func() error {
		res, err := s.db.Conn().ExecContext(ctx, `
			INSERT INTO task_events (task_type, task_id, event_type, category, severity, data, created_at)
			VALUES (?,?,?,?,?,?,?)
		`, e.TaskType, e.TaskID, e.EventType, string(e.Category), e.Severity, string(data), e.CreatedAt.UnixMilli())
		if err != nil {
			return err
		}
		if id, err := res.LastInsertId(); err == nil {
			e.ID = id
		}
		return nil
	})
}

func (s *EventStore) List(ctx context.Context, taskID string, limit int) ([]*models.TaskEvent, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, task_type, task_id, event_type, category, severity, data, created_at
		FROM task_events WHERE task_id=? ORDER BY created_at ASC, id ASC LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.TaskEvent
	for rows.Next() {
		var e models.TaskEvent
		var category, data string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.TaskType, &e.TaskID, &e.EventType, &category, &e.Severity, &data, &createdAt); err != nil {
			return nil, err
		}
		e.Category = models.EventCategory(category)
		e.CreatedAt = timeFromMillis(createdAt)
		if data != "" {
			_ = json.Unmarshal([]byte(data), &e.Data)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
