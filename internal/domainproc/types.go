// Package domainproc implements the hub-discovery pipeline of spec §4.7:
// normalizeDomain → initSummary → assessReadiness → selectPlaces →
// selectTopics → checkProcessable → processHubTypes → finalizeSummary.
package domainproc

import (
	"context"
	"time"

	"github.com/ternarybob/hubscout/internal/models"
)

// Options configures one pipeline run, per spec §4.7/§6.
type Options struct {
	Kinds                      []models.PlaceKind
	Limit                      int
	PatternsPerPlace           int
	EnableTopicDiscovery       bool
	EnableCombinationDiscovery bool
	ExplicitTopics             []models.Topic
	Apply                      bool
	MaxDownloads               int
	RateLimitMs                int
	MaxAge                     time.Duration
	Refresh404                 time.Duration
	Retry4xx                   time.Duration
	AttemptID                  string
	RunID                      string
}

// DiffPreview accumulates the hub rows inserted/updated in one run, for
// the caller's result preview (spec §4.7 step 2).
type DiffPreview struct {
	Inserted []*models.Hub `json:"inserted"`
	Updated  []*models.Hub `json:"updated"`
}

// Summary is the accumulated counters and decision log of one pipeline
// run, returned regardless of where the pipeline stopped.
type Summary struct {
	Domain                   string                 `json:"domain"`
	TotalPlaces              int                    `json:"totalPlaces"`
	TotalTopics              int                    `json:"totalTopics"`
	TotalURLs                int                    `json:"totalUrls"`
	Fetched                  int                    `json:"fetched"`
	Cached                   int                    `json:"cached"`
	Skipped                  int                    `json:"skipped"`
	SkippedRecent4xx         int                    `json:"skippedRecent4xx"`
	SkippedDuplicatePlace    int                    `json:"skippedDuplicatePlace"`
	SkippedDuplicateTopic    int                    `json:"skippedDuplicateTopic"`
	SkippedDuplicateCombo    int                    `json:"skippedDuplicateCombo"`
	Stored404                int                    `json:"stored404"`
	InsertedHubs             int                    `json:"insertedHubs"`
	UpdatedHubs              int                    `json:"updatedHubs"`
	Errors                   int                    `json:"errors"`
	RateLimited              int                    `json:"rateLimited"`
	ValidationSucceeded      int                    `json:"validationSucceeded"`
	ValidationFailed         int                    `json:"validationFailed"`
	ValidationFailureReasons map[string]int         `json:"validationFailureReasons"`
	DiffPreview              DiffPreview            `json:"diffPreview"`
	Decisions                []string               `json:"decisions"`
	UnsupportedKinds         []string               `json:"unsupportedKinds,omitempty"`
	Determination            models.Determination   `json:"determination,omitempty"`
	DeterminationReason      string                 `json:"determinationReason,omitempty"`
	StartedAt                time.Time              `json:"startedAt"`
	CompletedAt              time.Time              `json:"completedAt"`
	DurationMs               int64                  `json:"durationMs"`
}

func newSummary(domain string) *Summary {
	return &Summary{
		Domain:                   domain,
		ValidationFailureReasons: make(map[string]int),
		Decisions:                make([]string, 0),
		StartedAt:                time.Now(),
	}
}

func (s *Summary) recordDecision(d string) {
	s.Decisions = append(s.Decisions, d)
}

// Result is the outcome of one Process call.
type Result struct {
	Summary *Summary
	Aborted bool
	Reason  string
}

// JobControl is the cooperative cancellation surface spec §4.11(a)
// describes: an abort flag polled between candidates, and a pause flag
// the fetch loop blocks on. Implemented by internal/jobs.
type JobControl interface {
	Aborted() bool
	WaitIfPaused(ctx context.Context) error
}
