package domainproc

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/models"
)

// processHubTypes is the inner loop of spec §4.7 step 7: iterate places,
// topics, and (if enabled) place-topic combinations, predicting,
// dedicating cache policy, fetching, validating, and upserting hubs for
// each. Returns true if a 429 triggered a domain-wide soft abort.
func (p *Processor) processHubTypes(ctx context.Context, domain models.Domain, places []models.Place, topics []models.Topic, opts Options, control JobControl, summary *Summary) bool {
	seenPlaces := make(map[string]bool)
	seenTopics := make(map[string]bool)
	seenCombos := make(map[string]bool)

	for _, place := range places {
		if control != nil && control.Aborted() {
			return false
		}
		key := string(place.Kind) + ":" + place.Code + ":" + place.Name
		if seenPlaces[key] {
			summary.SkippedDuplicatePlace++
			continue
		}
		seenPlaces[key] = true

		predictions, err := p.deps.PlaceAnalyzer.PredictPlaceHubURLs(domain.Host, place)
		if err != nil {
			p.deps.Logger.Warn().Err(err).Str("place", place.Name).Msg("place analyzer failed")
			continue
		}

		aborted := p.processCandidateSet(ctx, domain, opts, control, summary, predictions, hubTarget{place: &place})
		if aborted {
			return true
		}
	}

	for _, topic := range topics {
		if control != nil && control.Aborted() {
			return false
		}
		if seenTopics[topic.Slug] {
			summary.SkippedDuplicateTopic++
			continue
		}
		seenTopics[topic.Slug] = true

		predictions, err := p.deps.TopicAnalyzer.PredictTopicHubURLs(domain.Host, topic)
		if err != nil {
			p.deps.Logger.Warn().Err(err).Str("topic", topic.Slug).Msg("topic analyzer failed")
			continue
		}

		aborted := p.processCandidateSet(ctx, domain, opts, control, summary, predictions, hubTarget{topic: &topic})
		if aborted {
			return true
		}
	}

	if opts.EnableCombinationDiscovery && p.deps.ComboAnalyzer != nil {
		for _, place := range places {
			for _, topic := range topics {
				if control != nil && control.Aborted() {
					return false
				}
				comboKey := place.Code + "|" + place.Name + "|" + topic.Slug
				if seenCombos[comboKey] {
					summary.SkippedDuplicateCombo++
					continue
				}
				seenCombos[comboKey] = true

				predictions, err := p.deps.ComboAnalyzer.PredictCombinationHubURLs(domain.Host, place, topic)
				if err != nil {
					p.deps.Logger.Warn().Err(err).Str("place", place.Name).Str("topic", topic.Slug).Msg("combination analyzer failed")
					continue
				}

				aborted := p.processCandidateSet(ctx, domain, opts, control, summary, predictions, hubTarget{place: &place, topic: &topic})
				if aborted {
					return true
				}
			}
		}
	}

	return false
}

// hubTarget names what a candidate set is being validated against.
type hubTarget struct {
	place *models.Place
	topic *models.Topic
}

func (t hubTarget) placeSlug() string {
	if t.place == nil {
		return ""
	}
	if t.place.Code != "" {
		return t.place.Code
	}
	return t.place.Name
}

func (t hubTarget) topicSlug() string {
	if t.topic == nil {
		return ""
	}
	return t.topic.Slug
}

func (p *Processor) validate(target hubTarget, body, domain string) interfaces.ValidationResult {
	switch {
	case target.place != nil && target.topic != nil:
		return p.deps.Validator.ValidatePlacePlaceHub(body, *target.place, *target.topic, domain)
	case target.topic != nil:
		return p.deps.Validator.ValidateTopicHub(body, *target.topic, domain)
	default:
		return p.deps.Validator.ValidatePlaceHub(body, *target.place, domain)
	}
}

// processCandidateSet normalizes, deduplicates, and truncates one
// place/topic/combination's predictions, then fetches/validates each in
// priority order. Returns true if a 429 triggered a domain-wide abort.
func (p *Processor) processCandidateSet(ctx context.Context, domain models.Domain, opts Options, control JobControl, summary *Summary, predictions []models.Prediction, target hubTarget) bool {
	patternsPerPlace := opts.PatternsPerPlace
	if patternsPerPlace <= 0 {
		patternsPerPlace = 3
	}

	queue := newCandidateQueue()
	seenURLs := make(map[string]bool)
	for _, pred := range predictions {
		normalized := normalizeURL(pred.URL, domain)
		if normalized == "" || seenURLs[normalized] {
			continue
		}
		seenURLs[normalized] = true
		score := 0.0
		if pred.Score != nil {
			score = *pred.Score
		}
		confidence := 0.0
		if pred.Confidence != nil {
			confidence = *pred.Confidence
		}
		queue.push(&candidateItem{
			URL: normalized, Score: score, Confidence: confidence, AddedAt: time.Now(),
			Pattern: pred.Pattern, Analyzer: pred.Analyzer, Strategy: pred.Strategy,
		})
	}

	processed := 0
	for processed < patternsPerPlace {
		item, ok := queue.pop()
		if !ok {
			break
		}
		processed++
		summary.TotalURLs++

		if control != nil {
			if control.Aborted() {
				return false
			}
			if err := control.WaitIfPaused(ctx); err != nil {
				return false
			}
		}

		aborted := p.processOneCandidate(ctx, domain, opts, summary, item, target)
		if aborted {
			return true
		}
	}
	return false
}

func (p *Processor) processOneCandidate(ctx context.Context, domain models.Domain, opts Options, summary *Summary, item *candidateItem, target hubTarget) bool {
	attemptID := opts.AttemptID

	score := item.Score
	confidence := item.Confidence
	candidate := &models.Candidate{
		Domain:       domain.Host,
		CanonicalURL: item.URL,
		PlaceKind:    targetPlaceKind(target),
		PlaceName:    targetPlaceName(target),
		PlaceCode:    target.placeSlug(),
		TopicSlug:    target.topicSlug(),
		Analyzer:     item.Analyzer,
		Strategy:     item.Strategy,
		Score:        &score,
		Confidence:   &confidence,
		Pattern:      item.Pattern,
		Status:       models.CandidatePending,
		AttemptID:    attemptID,
		LastSeenAt:   time.Now(),
	}
	if err := p.deps.Candidates.SaveCandidate(ctx, candidate); err != nil {
		p.deps.Logger.Warn().Err(err).Str("url", item.URL).Msg("save candidate failed")
	}

	if p.deps.Limiter != nil {
		_ = p.deps.Limiter.Wait(ctx, item.URL)
	}

	latest, err := p.deps.Recorder.LatestFetch(ctx, item.URL)
	if err != nil {
		p.deps.Logger.Warn().Err(err).Str("url", item.URL).Msg("latest fetch lookup failed, treating as uncached")
		latest = nil
	}
	decision := cacheDecisionFor(latest, opts)
	switch decision {
	case cacheOK:
		summary.Cached++
		p.markStatus(ctx, domain.Host, item.URL, models.CandidateCachedOK, latest.HTTPStatus, "")
		return false
	case cacheKnown404:
		summary.Skipped++
		p.markStatus(ctx, domain.Host, item.URL, models.CandidateCached404, latest.HTTPStatus, "")
		return false
	case cacheRecent4xx:
		summary.SkippedRecent4xx++
		p.markStatus(ctx, domain.Host, item.URL, models.CandidateCached4xx, latest.HTTPStatus, "")
		return false
	}

	result, err := p.deps.Fetcher.Fetch(ctx, item.URL, interfaces.FetchOptions{TimeoutMs: 15000, UserAgent: opts.userAgentOrDefault()})
	if err != nil {
		summary.Errors++
		p.deps.Logger.Error().Err(err).Str("url", item.URL).Msg("fetch executor returned an unexpected error")
		return false
	}

	row := &models.FetchRow{
		URL:              item.URL,
		Domain:           domain.Host,
		HTTPStatus:       result.HTTPStatus,
		HTTPSuccess:      result.Ok && result.HTTPStatus >= 200 && result.HTTPStatus < 300,
		RequestMethod:    "GET",
		RequestStartedAt: time.UnixMilli(result.RequestStartedAt),
		FetchedAt:        time.UnixMilli(result.FetchedAt),
		BytesDownloaded:  result.BytesDownloaded,
		ContentType:      result.ContentType,
		ContentLength:    result.ContentLength,
		TotalMs:          result.TotalMs,
		RedirectCount:    result.RedirectCount,
	}
	if err := p.deps.Recorder.Record(ctx, row, "GET", attemptID, false); err != nil {
		p.deps.Logger.Warn().Err(err).Str("url", item.URL).Msg("record fetch failed")
	}

	if !result.Ok {
		summary.Errors++
		p.markStatus(ctx, domain.Host, item.URL, models.CandidateFetchError, result.HTTPStatus, result.Error)
		return false
	}

	summary.Fetched++

	switch {
	case result.HTTPStatus == 404:
		summary.Stored404++
		p.markStatus(ctx, domain.Host, item.URL, models.CandidateFetchedError, result.HTTPStatus, "not found")
		return false
	case result.HTTPStatus == 429:
		summary.RateLimited++
		summary.recordDecision("rate-limited")
		p.appendAudit(ctx, domain.Host, item.URL, target, models.DecisionRejected, opts.RunID, attemptID, "")
		return true
	case result.HTTPStatus < 200 || result.HTTPStatus >= 300:
		summary.Errors++
		p.markStatus(ctx, domain.Host, item.URL, models.CandidateFetchedError, result.HTTPStatus, "non-2xx response")
		return false
	}

	p.markStatus(ctx, domain.Host, item.URL, models.CandidateFetchedOK, result.HTTPStatus, "")

	validation := p.validate(target, result.Body, domain.Host)
	signals := map[string]any{}
	if validation.Metrics != nil {
		signals = validation.Metrics
	}
	if err := p.deps.Candidates.UpdateValidation(ctx, domain.Host, item.URL, validationStatusFor(validation.IsValid), signals); err != nil {
		p.deps.Logger.Warn().Err(err).Str("url", item.URL).Msg("update validation failed")
	}

	if validation.IsValid {
		summary.ValidationSucceeded++
		p.markStatus(ctx, domain.Host, item.URL, models.CandidateValidated, result.HTTPStatus, "")
		if opts.Apply {
			p.upsertHub(ctx, domain.Host, item.URL, target, validation, summary)
		}
		p.appendAudit(ctx, domain.Host, item.URL, target, models.DecisionAccepted, opts.RunID, attemptID, "")
	} else {
		summary.ValidationFailed++
		summary.ValidationFailureReasons[validation.Reason]++
		p.markStatus(ctx, domain.Host, item.URL, models.CandidateValidationFailed, result.HTTPStatus, validation.Reason)
		p.appendAudit(ctx, domain.Host, item.URL, target, models.DecisionRejected, opts.RunID, attemptID, validation.Reason)
	}

	return false
}

func (p *Processor) upsertHub(ctx context.Context, domain, hubURL string, target hubTarget, validation interfaces.ValidationResult, summary *Summary) {
	hub := &models.Hub{
		Domain:            domain,
		URL:               hubURL,
		PlaceSlug:         target.placeSlug(),
		PlaceKind:         targetPlaceKind(target),
		TopicSlug:         target.topicSlug(),
		TopicLabel:        targetTopicLabel(target),
		Title:             validation.Title,
		NavLinksCount:     validation.NavLinkCount,
		ArticleLinksCount: validation.ArticleLinkCount,
	}
	inserted, updated, err := p.deps.Hubs.Upsert(ctx, hub)
	if err != nil {
		p.deps.Logger.Warn().Err(err).Str("url", hubURL).Msg("hub upsert failed")
		return
	}
	if inserted {
		summary.InsertedHubs++
		summary.DiffPreview.Inserted = append(summary.DiffPreview.Inserted, hub)
	} else if updated {
		summary.UpdatedHubs++
		summary.DiffPreview.Updated = append(summary.DiffPreview.Updated, hub)
	}
}

func (p *Processor) markStatus(ctx context.Context, domain, url string, status models.CandidateStatus, httpStatus int, errMessage string) {
	if err := p.deps.Candidates.MarkStatus(ctx, domain, url, status, httpStatus, "", errMessage, time.Now()); err != nil {
		p.deps.Logger.Warn().Err(err).Str("url", url).Msg("mark candidate status failed")
	}
}

func (p *Processor) appendAudit(ctx context.Context, domain, hubURL string, target hubTarget, decision models.Decision, runID, attemptID, reason string) {
	entry := &models.AuditEntry{
		RunID:     runID,
		AttemptID: attemptID,
		Domain:    domain,
		URL:       hubURL,
		PlaceKind: targetPlaceKind(target),
		PlaceName: targetPlaceName(target),
		Decision:  decision,
		CreatedAt: time.Now(),
	}
	if reason != "" {
		entry.ValidationMetricsJSON = `{"reason":"` + strings.ReplaceAll(reason, `"`, `'`) + `"}`
	}
	if err := p.deps.Audit.Append(ctx, entry); err != nil {
		p.deps.Logger.Warn().Err(err).Str("url", hubURL).Msg("append audit entry failed")
	}
}

func targetPlaceKind(t hubTarget) string {
	if t.place == nil {
		return ""
	}
	return string(t.place.Kind)
}

func targetPlaceName(t hubTarget) string {
	if t.place == nil {
		return ""
	}
	return t.place.Name
}

func targetTopicLabel(t hubTarget) string {
	if t.topic == nil {
		return ""
	}
	return t.topic.Label
}

func validationStatusFor(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}

type cacheDecisionKind int

const (
	cacheNone cacheDecisionKind = iota
	cacheOK
	cacheKnown404
	cacheRecent4xx
)

func cacheDecisionFor(latest *models.FetchRow, opts Options) cacheDecisionKind {
	if latest == nil {
		return cacheNone
	}
	age := time.Since(latest.FetchedAt)
	switch {
	case latest.HTTPStatus >= 200 && latest.HTTPStatus <= 299 && age < opts.MaxAge:
		return cacheOK
	case latest.HTTPStatus == 404 && age < opts.Refresh404:
		return cacheKnown404
	case latest.HTTPStatus >= 400 && latest.HTTPStatus <= 499 && latest.HTTPStatus != 404 && age < opts.Retry4xx:
		return cacheRecent4xx
	default:
		return cacheNone
	}
}

// normalizeURL applies the domain's scheme to relative URLs and
// lowercase-canonicalizes the result, per spec §4.7 step "normalize URLs
// (apply scheme, lowercase-canonicalize)".
func normalizeURL(raw string, domain models.Domain) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Host == "" {
		u.Host = domain.Host
		u.Scheme = domain.Scheme
	}
	if u.Scheme == "" {
		u.Scheme = domain.Scheme
	}
	u.Host = strings.ToLower(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)
	return u.String()
}

func (o Options) userAgentOrDefault() string {
	return "hubscout/1.0 (+crawler; attempt=" + o.AttemptID + ")"
}
