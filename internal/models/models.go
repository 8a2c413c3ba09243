// Package models holds the plain data entities shared across the crawl
// engine, the hub-discovery pipeline, and the job/telemetry surfaces.
package models

import "time"

// Domain identifies the site being crawled. Immutable within a run.
type Domain struct {
	Host   string `json:"host"`
	Scheme string `json:"scheme"`
	Base   string `json:"base"`
}

// PlaceKind enumerates the geographic granularities a Place may take.
type PlaceKind string

const (
	PlaceKindCountry PlaceKind = "country"
	PlaceKindRegion  PlaceKind = "region"
	PlaceKindCity    PlaceKind = "city"
)

// Place is a geographic entity supplied by analyzers; read-only to the core.
type Place struct {
	Kind       PlaceKind `json:"kind"`
	Name       string    `json:"name"`
	Code       string    `json:"code,omitempty"`
	ParentCode string    `json:"parentCode,omitempty"`
	Importance float64   `json:"importance"`
}

// Topic is a non-geographic subject slug.
type Topic struct {
	Slug     string `json:"slug"`
	Label    string `json:"label"`
	Category string `json:"category,omitempty"`
	Language string `json:"language,omitempty"`
}

// Prediction is a candidate URL produced by a predictor analyzer, transient
// until persisted as a Candidate.
type Prediction struct {
	URL        string   `json:"url"`
	Analyzer   string   `json:"analyzer"`
	Strategy   string   `json:"strategy"`
	Pattern    string   `json:"pattern,omitempty"`
	Score      *float64 `json:"score,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// CandidateStatus is the free-string status enumerated in spec §4.3.
type CandidateStatus string

const (
	CandidatePending         CandidateStatus = "pending"
	CandidateCachedOK        CandidateStatus = "cached-ok"
	CandidateCached404       CandidateStatus = "cached-404"
	CandidateCached4xx       CandidateStatus = "cached-4xx"
	CandidateFetchedOK       CandidateStatus = "fetched-ok"
	CandidateFetchedError    CandidateStatus = "fetched-error"
	CandidateFetchError      CandidateStatus = "fetch-error"
	CandidateValidated       CandidateStatus = "validated"
	CandidateValidationFailed CandidateStatus = "validation-failed"
)

// Candidate is a predicted URL tracked through the cache/fetch/validate
// lifecycle. Unique per (Domain, CanonicalURL).
type Candidate struct {
	Domain           string          `json:"domain"`
	CanonicalURL     string          `json:"canonicalUrl"`
	PlaceKind        string          `json:"placeKind,omitempty"`
	PlaceName        string          `json:"placeName,omitempty"`
	PlaceCode        string          `json:"placeCode,omitempty"`
	TopicSlug        string          `json:"topicSlug,omitempty"`
	Analyzer         string          `json:"analyzer"`
	Strategy         string          `json:"strategy"`
	Score            *float64        `json:"score,omitempty"`
	Confidence       *float64        `json:"confidence,omitempty"`
	Pattern          string          `json:"pattern,omitempty"`
	Signals          map[string]any  `json:"signals,omitempty"`
	Status           CandidateStatus `json:"status"`
	ValidationStatus string          `json:"validationStatus,omitempty"`
	AttemptID        string          `json:"attemptId"`
	LastSeenAt       time.Time       `json:"lastSeenAt"`
}

// FetchRow is an append-only record of one HTTP attempt.
type FetchRow struct {
	ID               int64     `json:"id,omitempty"`
	URL              string    `json:"url"`
	Domain           string    `json:"domain"`
	HTTPStatus       int       `json:"httpStatus"`
	HTTPSuccess      bool      `json:"httpSuccess"`
	Title            string    `json:"title,omitempty"`
	RequestMethod    string    `json:"requestMethod"`
	RequestStartedAt time.Time `json:"requestStartedAt"`
	FetchedAt        time.Time `json:"fetchedAt"`
	BytesDownloaded  int64     `json:"bytesDownloaded"`
	ContentType      string    `json:"contentType,omitempty"`
	ContentLength    int64     `json:"contentLength,omitempty"`
	TotalMs          int64     `json:"totalMs"`
	DownloadMs       int64     `json:"downloadMs"`
	RedirectCount    int       `json:"redirectCount"`
}

// Hub is a validated place/topic/combination structural page. Upsert key is
// (Domain, URL).
type Hub struct {
	Domain           string    `json:"domain"`
	URL              string    `json:"url"`
	PlaceSlug        string    `json:"placeSlug,omitempty"`
	PlaceKind        string    `json:"placeKind,omitempty"`
	TopicSlug        string    `json:"topicSlug,omitempty"`
	TopicLabel       string    `json:"topicLabel,omitempty"`
	Title            string    `json:"title,omitempty"`
	NavLinksCount    int       `json:"navLinksCount"`
	ArticleLinksCount int      `json:"articleLinksCount"`
	EvidenceJSON     string    `json:"evidenceJson,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Decision is the validation verdict recorded on an AuditEntry.
type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// AuditEntry is an append-only record of one validation outcome.
type AuditEntry struct {
	ID                    int64     `json:"id,omitempty"`
	RunID                 string    `json:"runId"`
	AttemptID             string    `json:"attemptId"`
	Domain                string    `json:"domain"`
	URL                   string    `json:"url"`
	PlaceKind             string    `json:"placeKind,omitempty"`
	PlaceName             string    `json:"placeName,omitempty"`
	Decision              Decision  `json:"decision"`
	ValidationMetricsJSON string    `json:"validationMetricsJson,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
}

// Determination is the terminal verdict on a domain.
type Determination string

const (
	DeterminationProcessed        Determination = "processed"
	DeterminationRateLimited      Determination = "rate-limited"
	DeterminationInsufficientData Determination = "insufficient-data"
	DeterminationDataLimited      Determination = "data-limited"
	DeterminationError            Determination = "error"
)

// DomainDetermination is an append-only record of a terminal pipeline
// verdict for a domain; "latest" is max(CreatedAt) per domain.
type DomainDetermination struct {
	ID            int64         `json:"id,omitempty"`
	Domain        string        `json:"domain"`
	Determination Determination `json:"determination"`
	Reason        string        `json:"reason"`
	Details       string        `json:"details,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobPaused    JobStatus = "paused"
	JobStopping  JobStatus = "stopping"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job owns at most one fetch-executor instance.
type Job struct {
	ID             string         `json:"id"`
	OperationName  string         `json:"operationName"`
	StartURL       string         `json:"startUrl"`
	Overrides      map[string]any `json:"overrides,omitempty"`
	Status         JobStatus      `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	StartedAt      time.Time      `json:"startedAt,omitempty"`
	FinishedAt     *time.Time     `json:"finishedAt,omitempty"`
	Progress       map[string]any `json:"progress,omitempty"`
	AbortRequested bool           `json:"abortRequested"`
	Paused         bool           `json:"paused"`
}

// Step is one operation invocation within a SequenceConfig.
type Step struct {
	ID              string         `json:"id"`
	Operation       string         `json:"operation"`
	Label           string         `json:"label,omitempty"`
	StartURL        string         `json:"startUrl,omitempty"`
	Overrides       map[string]any `json:"overrides,omitempty"`
	ContinueOnError bool           `json:"continueOnError,omitempty"`
}

// SequenceMetadata records how a SequenceConfig was loaded and resolved.
type SequenceMetadata struct {
	Source         string   `json:"source"`
	ResolvedTokens []string `json:"resolvedTokens,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// SequenceConfig is immutable after load.
type SequenceConfig struct {
	Name            string         `json:"name"`
	Host            string         `json:"host,omitempty"`
	StartURL        string         `json:"startUrl,omitempty"`
	SharedOverrides map[string]any `json:"sharedOverrides,omitempty"`
	ContinueOnError bool           `json:"continueOnError,omitempty"`
	Steps           []Step         `json:"steps"`
	Schedule        string         `json:"schedule,omitempty"`
	Metadata        SequenceMetadata `json:"metadata"`
}

// EventCategory classifies a TaskEvent.
type EventCategory string

const (
	CategoryLifecycle EventCategory = "lifecycle"
	CategoryProgress  EventCategory = "progress"
	CategoryTelemetry EventCategory = "telemetry"
	CategoryMilestone EventCategory = "milestone"
	CategoryError     EventCategory = "error"
)

// TaskEvent is an append-only time-series record emitted by the domain
// processor and the sequence runner.
type TaskEvent struct {
	ID        int64          `json:"id,omitempty"`
	TaskType  string         `json:"taskType"`
	TaskID    string         `json:"taskId"`
	EventType string         `json:"eventType"`
	Category  EventCategory  `json:"category"`
	Severity  string         `json:"severity"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
