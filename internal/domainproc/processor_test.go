package domainproc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/events"
	"github.com/ternarybob/hubscout/internal/fetch"
	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/models"
	"github.com/ternarybob/hubscout/internal/storage/memory"
)

// fakePlaces implements interfaces.PlaceProvider with a fixed set.
type fakePlaces struct {
	places []models.Place
	topics []models.Topic
}

func (f *fakePlaces) Places(ctx context.Context, kinds []models.PlaceKind, limit int) ([]models.Place, error) {
	return f.places, nil
}

func (f *fakePlaces) Topics(ctx context.Context, limit int) ([]models.Topic, error) {
	return f.topics, nil
}

// fakePlaceAnalyzer always predicts the same single URL per place.
type fakePlaceAnalyzer struct{ urlFn func(place models.Place) string }

func (f *fakePlaceAnalyzer) Name() string { return "fake-place-analyzer" }

func (f *fakePlaceAnalyzer) PredictPlaceHubURLs(host string, place models.Place) ([]models.Prediction, error) {
	score, confidence := 0.9, 0.8
	u := "https://" + host + "/" + place.Code
	if f.urlFn != nil {
		u = f.urlFn(place)
	}
	return []models.Prediction{{URL: u, Analyzer: "fake-place-analyzer", Strategy: "fixed", Score: &score, Confidence: &confidence}}, nil
}

type fakeTopicAnalyzer struct{}

func (f *fakeTopicAnalyzer) Name() string { return "fake-topic-analyzer" }

func (f *fakeTopicAnalyzer) PredictTopicHubURLs(host string, topic models.Topic) ([]models.Prediction, error) {
	score, confidence := 0.7, 0.6
	return []models.Prediction{{URL: "https://" + host + "/topic/" + topic.Slug, Analyzer: "fake-topic-analyzer", Strategy: "fixed", Score: &score, Confidence: &confidence}}, nil
}

// fakeFetcher returns a canned result per URL, defaulting to 200 OK.
type fakeFetcher struct {
	byURL map[string]*interfaces.FetchResult
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, opts interfaces.FetchOptions) (*interfaces.FetchResult, error) {
	f.calls = append(f.calls, url)
	if r, ok := f.byURL[url]; ok {
		return r, nil
	}
	now := time.Now().UnixMilli()
	return &interfaces.FetchResult{Ok: true, HTTPStatus: 200, FinalURL: url, Body: "<html><body>hub</body></html>",
		RequestStartedAt: now, FetchedAt: now, TotalMs: 1}, nil
}

// fakeValidator accepts everything, or rejects if configured to.
type fakeValidator struct{ valid bool }

func (f *fakeValidator) ValidatePlaceHub(body string, place models.Place, domain string) interfaces.ValidationResult {
	return interfaces.ValidationResult{IsValid: f.valid, Reason: "forced-rejection", NavLinkCount: 5, ArticleLinkCount: 8, Title: "Hub"}
}

func (f *fakeValidator) ValidateTopicHub(body string, topic models.Topic, domain string) interfaces.ValidationResult {
	return f.ValidatePlaceHub(body, models.Place{}, domain)
}

func (f *fakeValidator) ValidatePlacePlaceHub(body string, place models.Place, topic models.Topic, domain string) interfaces.ValidationResult {
	return f.ValidatePlaceHub(body, place, domain)
}

func newTestProcessor(t *testing.T, fetcher interfaces.Fetcher, validator interfaces.HubValidator) (*Processor, *memory.Bundle) {
	t.Helper()
	bundle := memory.NewBundle()
	logger := arbor.NewLogger()
	bus := events.NewBus(bundle.Events, logger)
	recorder := fetch.NewRecorder(bundle.Fetches, nil, logger)

	deps := Deps{
		Candidates:     bundle.Candidates,
		Hubs:           bundle.Hubs,
		Audit:          bundle.Audit,
		Determinations: bundle.Determinations,
		Recorder:       recorder,
		Fetcher:        fetcher,
		Validator:      validator,
		Places: &fakePlaces{
			places: []models.Place{{Kind: models.PlaceKindCountry, Name: "Testland", Code: "testland"}},
		},
		PlaceAnalyzer: &fakePlaceAnalyzer{},
		TopicAnalyzer: &fakeTopicAnalyzer{},
		Telemetry:     bus,
		Logger:        logger,
	}
	return NewProcessor(deps), bundle
}

func baseOptions() Options {
	return Options{
		Kinds:            []models.PlaceKind{models.PlaceKindCountry},
		Limit:            10,
		PatternsPerPlace: 3,
		Apply:            true,
		MaxAge:           7 * 24 * time.Hour,
		Refresh404:       180 * 24 * time.Hour,
		Retry4xx:         7 * 24 * time.Hour,
		AttemptID:        "attempt-1",
		RunID:            "run-1",
	}
}

func TestProcessInsufficientDataEarlyExit(t *testing.T) {
	fetcher := &fakeFetcher{}
	p, _ := newTestProcessor(t, fetcher, &fakeValidator{valid: true})

	result, err := p.Process(context.Background(), "https://news.example", Options{Kinds: []models.PlaceKind{models.PlaceKindCountry}}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.DeterminationInsufficientData, result.Summary.Determination)
	assert.Empty(t, fetcher.calls, "no fetch should have happened before readiness gated the run")
}

func TestProcessCachedOKSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	p, bundle := newTestProcessor(t, fetcher, &fakeValidator{valid: true})

	seedURL := "https://news.example/testland"
	require.NoError(t, bundle.Fetches.Record(context.Background(), &models.FetchRow{
		URL: seedURL, Domain: "news.example", HTTPStatus: 200, HTTPSuccess: true,
		FetchedAt: time.Now().Add(-time.Hour), RequestStartedAt: time.Now().Add(-time.Hour),
	}))
	// Seed candidate history too, so readiness doesn't bail out as insufficient-data.
	require.NoError(t, bundle.Candidates.SaveCandidate(context.Background(), &models.Candidate{
		Domain: "news.example", CanonicalURL: seedURL, Status: models.CandidateValidated, LastSeenAt: time.Now(),
	}))

	result, err := p.Process(context.Background(), "https://news.example", baseOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Cached)
	assert.Empty(t, fetcher.calls, "cached-ok decision should skip the fetch executor entirely")
}

func TestProcessKnown404Skipped(t *testing.T) {
	fetcher := &fakeFetcher{}
	p, bundle := newTestProcessor(t, fetcher, &fakeValidator{valid: true})

	seedURL := "https://news.example/testland"
	require.NoError(t, bundle.Fetches.Record(context.Background(), &models.FetchRow{
		URL: seedURL, Domain: "news.example", HTTPStatus: 404, HTTPSuccess: false,
		FetchedAt: time.Now().Add(-time.Hour), RequestStartedAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, bundle.Candidates.SaveCandidate(context.Background(), &models.Candidate{
		Domain: "news.example", CanonicalURL: seedURL, Status: models.CandidateValidated, LastSeenAt: time.Now(),
	}))

	result, err := p.Process(context.Background(), "https://news.example", baseOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Skipped)
	assert.Empty(t, fetcher.calls)
}

func TestProcessValidHubInserted(t *testing.T) {
	fetcher := &fakeFetcher{}
	p, bundle := newTestProcessor(t, fetcher, &fakeValidator{valid: true})

	// Seed enough prior fetch history that readiness isn't insufficient-data.
	require.NoError(t, bundle.Fetches.Record(context.Background(), &models.FetchRow{
		URL: "https://news.example/prior", Domain: "news.example", HTTPStatus: 200,
		FetchedAt: time.Now().Add(-30 * 24 * time.Hour), RequestStartedAt: time.Now().Add(-30 * 24 * time.Hour),
	}))

	result, err := p.Process(context.Background(), "https://news.example", baseOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.ValidationSucceeded)
	assert.Equal(t, 1, result.Summary.InsertedHubs)
	assert.Len(t, result.Summary.DiffPreview.Inserted, 1)
	assert.Equal(t, models.DeterminationProcessed, result.Summary.Determination)

	hubs, err := bundle.Hubs.ListByDomain(context.Background(), "news.example")
	require.NoError(t, err)
	assert.Len(t, hubs, 1)
}

func TestProcessRateLimitTriggersSoftAbort(t *testing.T) {
	fetcher := &fakeFetcher{byURL: map[string]*interfaces.FetchResult{
		"https://news.example/testland": {Ok: true, HTTPStatus: 429, FetchedAt: time.Now().UnixMilli(), RequestStartedAt: time.Now().UnixMilli()},
	}}
	p, bundle := newTestProcessor(t, fetcher, &fakeValidator{valid: true})

	require.NoError(t, bundle.Fetches.Record(context.Background(), &models.FetchRow{
		URL: "https://news.example/prior", Domain: "news.example", HTTPStatus: 200,
		FetchedAt: time.Now().Add(-30 * 24 * time.Hour), RequestStartedAt: time.Now().Add(-30 * 24 * time.Hour),
	}))

	result, err := p.Process(context.Background(), "https://news.example", baseOptions(), nil)
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.Equal(t, 1, result.Summary.RateLimited)
	assert.Equal(t, models.DeterminationRateLimited, result.Summary.Determination)
	assert.Equal(t, 0, result.Summary.TotalTopics, "no topics configured for this run")
}

func TestProcessValidationFailureRecordsReasonAndContinues(t *testing.T) {
	fetcher := &fakeFetcher{}
	p, bundle := newTestProcessor(t, fetcher, &fakeValidator{valid: false})

	require.NoError(t, bundle.Fetches.Record(context.Background(), &models.FetchRow{
		URL: "https://news.example/prior", Domain: "news.example", HTTPStatus: 200,
		FetchedAt: time.Now().Add(-30 * 24 * time.Hour), RequestStartedAt: time.Now().Add(-30 * 24 * time.Hour),
	}))

	result, err := p.Process(context.Background(), "https://news.example", baseOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.ValidationFailed)
	assert.Equal(t, 0, result.Summary.InsertedHubs)
	assert.Equal(t, 1, result.Summary.ValidationFailureReasons["forced-rejection"])
	assert.Equal(t, models.DeterminationProcessed, result.Summary.Determination, "a validation failure alone does not abort the domain")
}

func TestNormalizeDomainRejectsEmptyAndMalformedSeeds(t *testing.T) {
	_, err := normalizeDomain("")
	assert.Error(t, err)

	_, err = normalizeDomain("not a url")
	assert.Error(t, err)

	d, err := normalizeDomain("https://News.Example/path")
	require.NoError(t, err)
	assert.Equal(t, "news.example", d.Host)
}
