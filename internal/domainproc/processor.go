package domainproc

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/apperrors"
	"github.com/ternarybob/hubscout/internal/events"
	"github.com/ternarybob/hubscout/internal/fetch"
	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/models"
	"github.com/ternarybob/hubscout/internal/politeness"
	"github.com/ternarybob/hubscout/internal/readiness"
)

// Deps is everything the domain processor is constructed with, following
// the inject-via-constructor convention used across this engine.
type Deps struct {
	Candidates      interfaces.CandidateStore
	Hubs            interfaces.HubStore
	Audit           interfaces.AuditStore
	Determinations  interfaces.DeterminationStore
	Recorder        *fetch.Recorder
	Fetcher         interfaces.Fetcher
	Validator       interfaces.HubValidator
	Places          interfaces.PlaceProvider
	PlaceAnalyzer   interfaces.PlaceAnalyzer
	TopicAnalyzer   interfaces.TopicAnalyzer
	ComboAnalyzer   interfaces.CombinationAnalyzer
	Limiter         *politeness.Limiter
	Telemetry       *events.Bus
	Logger          arbor.ILogger
}

// Processor runs the hub-discovery pipeline of spec §4.7 for one domain.
type Processor struct {
	deps Deps
}

// NewProcessor builds a Processor from its injected collaborators.
func NewProcessor(deps Deps) *Processor {
	return &Processor{deps: deps}
}

// Process runs the full ordered pipeline for seedURL. control may be nil,
// in which case abort/pause are never signalled.
func (p *Processor) Process(ctx context.Context, seedURL string, opts Options, control JobControl) (*Result, error) {
	domain, err := normalizeDomain(seedURL)
	if err != nil {
		return nil, err
	}

	summary := newSummary(domain.Host)
	p.emit(ctx, domain.Host, "pipeline.started", models.CategoryLifecycle, map[string]any{"seedUrl": seedURL})

	readinessResult := p.assessReadiness(ctx, domain, opts)
	if readinessResult.Status == readiness.StatusInsufficientData {
		summary.Determination = models.DeterminationInsufficientData
		summary.DeterminationReason = readinessResult.Reason
		p.appendDetermination(ctx, domain.Host, models.DeterminationInsufficientData, readinessResult.Reason, strings.Join(readinessResult.Recommendations, "; "))
		p.finalize(summary)
		return &Result{Summary: summary}, nil
	}

	places, unsupportedKinds := p.selectPlaces(ctx, opts)
	summary.TotalPlaces = len(places)
	summary.UnsupportedKinds = unsupportedKinds

	topics := p.selectTopics(ctx, opts)
	summary.TotalTopics = len(topics)

	if len(places) == 0 && len(topics) == 0 {
		summary.Determination = models.DeterminationProcessed
		summary.DeterminationReason = "no places or topics selected for this run"
		p.finalize(summary)
		return &Result{Summary: summary}, nil
	}

	aborted := p.processHubTypes(ctx, domain, places, topics, opts, control, summary)

	if aborted {
		summary.Determination = models.DeterminationRateLimited
		summary.DeterminationReason = "domain-wide soft abort after 429 response"
		p.appendDetermination(ctx, domain.Host, models.DeterminationRateLimited, summary.DeterminationReason, "")
	} else {
		summary.Determination = models.DeterminationProcessed
		p.appendDetermination(ctx, domain.Host, models.DeterminationProcessed, "run completed", "")
	}

	p.finalize(summary)
	p.emit(ctx, domain.Host, "pipeline.completed", models.CategoryLifecycle, map[string]any{"determination": string(summary.Determination)})
	return &Result{Summary: summary, Aborted: aborted}, nil
}

func normalizeDomain(seedURL string) (models.Domain, error) {
	if strings.TrimSpace(seedURL) == "" {
		return models.Domain{}, apperrors.NewInvalidInput("seedUrl", "must not be empty")
	}
	u, err := url.Parse(seedURL)
	if err != nil || u.Host == "" {
		return models.Domain{}, apperrors.NewInvalidInput("seedUrl", "must be an absolute URL with a host")
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return models.Domain{
		Host:   strings.ToLower(u.Host),
		Scheme: scheme,
		Base:   scheme + "://" + strings.ToLower(u.Host),
	}, nil
}

func (p *Processor) assessReadiness(ctx context.Context, domain models.Domain, opts Options) readiness.Readiness {
	candidates, _ := p.deps.Candidates.ListByDomain(ctx, domain.Host)
	hubs, _ := p.deps.Hubs.ListByDomain(ctx, domain.Host)

	verifiedPatterns := 0
	for _, c := range candidates {
		if c.Status == models.CandidateValidated {
			verifiedPatterns++
		}
	}

	fetchHistoryCount := 0
	if p.deps.Recorder != nil {
		fetchHistoryCount, _ = p.deps.Recorder.CountByDomain(ctx, domain.Host)
	}

	latest, _, _ := p.deps.Determinations.Latest(ctx, domain.Host)

	metrics := readiness.Metrics{
		VerifiedPatterns:  verifiedPatterns,
		HistoricalHubs:    len(hubs),
		FetchHistoryCount: fetchHistoryCount,
		CandidateCount:    len(candidates),
	}
	// The processor only holds already-resolved analyzer interfaces, not
	// the DSPL itself, so DSPL-known-host is assumed true here for every
	// host; the predictor's Lookup result does not reach the assessment.
	return readiness.Assess(domain.Host, true, metrics, latest)
}

func (p *Processor) selectPlaces(ctx context.Context, opts Options) ([]models.Place, []string) {
	if len(opts.Kinds) == 0 {
		return nil, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	places, err := p.deps.Places.Places(ctx, opts.Kinds, limit)
	if err != nil {
		p.deps.Logger.Warn().Err(err).Msg("place provider failed, continuing with no places")
		return nil, kindsToStrings(opts.Kinds)
	}
	return places, nil
}

func (p *Processor) selectTopics(ctx context.Context, opts Options) []models.Topic {
	if len(opts.ExplicitTopics) > 0 {
		return opts.ExplicitTopics
	}
	if !opts.EnableTopicDiscovery && !opts.EnableCombinationDiscovery {
		return nil
	}
	topics, err := p.deps.Places.Topics(ctx, 50)
	if err != nil {
		p.deps.Logger.Warn().Err(err).Msg("topic provider failed, continuing with no topics")
		return nil
	}
	return topics
}

func (p *Processor) finalize(summary *Summary) {
	summary.CompletedAt = time.Now()
	summary.DurationMs = summary.CompletedAt.Sub(summary.StartedAt).Milliseconds()
}

func (p *Processor) appendDetermination(ctx context.Context, domain string, determination models.Determination, reason, details string) {
	if err := p.deps.Determinations.Append(ctx, &models.DomainDetermination{
		Domain:        domain,
		Determination: determination,
		Reason:        reason,
		Details:       details,
		CreatedAt:     time.Now(),
	}); err != nil {
		p.deps.Logger.Warn().Err(err).Str("domain", domain).Msg("failed to append domain determination")
	}
}

func (p *Processor) emit(ctx context.Context, taskID, eventType string, category models.EventCategory, data map[string]any) {
	if p.deps.Telemetry == nil {
		return
	}
	if err := p.deps.Telemetry.Publish(ctx, models.TaskEvent{
		TaskType:  "domain-process",
		TaskID:    taskID,
		EventType: eventType,
		Category:  category,
		Severity:  "info",
		Data:      data,
		CreatedAt: time.Now(),
	}); err != nil {
		p.deps.Logger.Warn().Err(err).Msg("telemetry publish failed")
	}
}

func kindsToStrings(kinds []models.PlaceKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
