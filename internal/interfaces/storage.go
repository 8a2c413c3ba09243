// Package interfaces defines the abstractions the domain processor and the
// rest of the engine are injected with: one interface per storage concern,
// plus the analyzer/validator/fetch contracts from spec §4. A relational
// (sqlite) implementation and an in-memory one (for tests) both satisfy
// these, following the inject-via-constructor pattern.
package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/hubscout/internal/models"
)

// CandidateStore persists predicted URLs with signals, status, and
// validation outcome. Unique key is (domain, canonicalUrl).
type CandidateStore interface {
	SaveCandidate(ctx context.Context, c *models.Candidate) error
	MarkStatus(ctx context.Context, domain, url string, status models.CandidateStatus, httpStatus int, validationStatus, errMessage string, lastSeenAt time.Time) error
	UpdateValidation(ctx context.Context, domain, url string, validationStatus string, signals map[string]any) error
	Get(ctx context.Context, domain, url string) (*models.Candidate, bool, error)
	ListByDomain(ctx context.Context, domain string) ([]*models.Candidate, error)
}

// FetchStore is the fetch cache / recorder of spec §4.2: append-only rows
// plus a latest-per-URL lookup.
type FetchStore interface {
	Record(ctx context.Context, row *models.FetchRow) error
	LatestFetch(ctx context.Context, url string) (*models.FetchRow, bool, error)
	CountByDomain(ctx context.Context, domain string) (int, error)
}

// HubStore upserts validated hubs keyed by (domain, url).
type HubStore interface {
	Upsert(ctx context.Context, hub *models.Hub) (inserted bool, updated bool, err error)
	ListByDomain(ctx context.Context, domain string) ([]*models.Hub, error)
}

// AuditStore appends one entry per validation outcome.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
}

// DeterminationStore appends terminal domain verdicts; latest is
// max(createdAt) per domain.
type DeterminationStore interface {
	Append(ctx context.Context, d *models.DomainDetermination) error
	Latest(ctx context.Context, domain string) (*models.DomainDetermination, bool, error)
}

// EventStore persists the TaskEvent time series.
type EventStore interface {
	Append(ctx context.Context, event *models.TaskEvent) error
	List(ctx context.Context, taskID string, limit int) ([]*models.TaskEvent, error)
}

// JobStore persists job metadata for the registry.
type JobStore interface {
	Save(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, bool, error)
	List(ctx context.Context) ([]*models.Job, error)
}
