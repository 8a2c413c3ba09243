package fetch

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/models"
)

// LegacyMirror is the secondary write target of spec §4.2(a): a
// best-effort mirror whose failures are logged at WARN and swallowed,
// never surfaced to the caller. Grounded on the teacher's dual-write
// convention in internal/jobs/manager.go and the events bus's
// store-then-broadcast ordering (internal/events/bus.go).
type LegacyMirror interface {
	Mirror(ctx context.Context, row *models.FetchRow) error
}

// CachePolicy holds the three configurable age windows of spec §4.2.
type CachePolicy struct {
	MaxAge      time.Duration
	Refresh404  time.Duration
	Retry4xx    time.Duration
}

// CacheDecision is the outcome of applying CachePolicy against the latest
// fetch row for a URL.
type CacheDecision string

const (
	CacheDecisionNone       CacheDecision = ""
	CacheDecisionOK         CacheDecision = "cached-ok"
	CacheDecisionKnown404   CacheDecision = "cached-404"
	CacheDecisionRecent4xx  CacheDecision = "cached-4xx"
)

// Recorder implements the fetch cache/recorder of spec §4.2: append-write
// plus latest-per-URL lookup, with an optional legacy mirror.
type Recorder struct {
	store  interfaces.FetchStore
	mirror LegacyMirror
	logger arbor.ILogger
}

// NewRecorder builds a Recorder. mirror may be nil, in which case no
// secondary write is attempted.
func NewRecorder(store interfaces.FetchStore, mirror LegacyMirror, logger arbor.ILogger) *Recorder {
	return &Recorder{store: store, mirror: mirror, logger: logger}
}

// Record appends row to the normalized store, then best-effort mirrors it.
// Mirror failures are logged at WARN and swallowed, per spec §4.2(a)/§7.
func (r *Recorder) Record(ctx context.Context, row *models.FetchRow, stage, attemptID string, cacheHit bool) error {
	if err := r.store.Record(ctx, row); err != nil {
		return err
	}
	if r.mirror == nil {
		return nil
	}
	if err := r.mirror.Mirror(ctx, row); err != nil {
		r.logger.Warn().Err(err).Str("url", row.URL).Str("stage", stage).
			Str("attemptId", attemptID).Bool("cacheHit", cacheHit).
			Msg("fetch row mirror write failed, continuing")
	}
	return nil
}

// LatestFetch returns the most recent row for url, or nil if none exists.
func (r *Recorder) LatestFetch(ctx context.Context, url string) (*models.FetchRow, error) {
	row, ok, err := r.store.LatestFetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return row, nil
}

// CountByDomain passes through to the underlying store, giving the
// readiness assessor real fetch-history evidence per domain (spec §4.6)
// instead of inferring it from candidate status.
func (r *Recorder) CountByDomain(ctx context.Context, domain string) (int, error) {
	return r.store.CountByDomain(ctx, domain)
}

// Decide applies CachePolicy against latest, per the precedence table in
// spec §4.2: 2xx-and-fresh wins, then known-404-within-window, then
// recent-4xx-within-window, else no cache decision (fetch is required).
func Decide(latest *models.FetchRow, now time.Time, policy CachePolicy) CacheDecision {
	if latest == nil {
		return CacheDecisionNone
	}
	age := now.Sub(latest.FetchedAt)
	status := latest.HTTPStatus

	switch {
	case status >= 200 && status <= 299 && age < policy.MaxAge:
		return CacheDecisionOK
	case status == 404 && age < policy.Refresh404:
		return CacheDecisionKnown404
	case status >= 400 && status <= 499 && status != 404 && age < policy.Retry4xx:
		return CacheDecisionRecent4xx
	default:
		return CacheDecisionNone
	}
}
