package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/apperrors"
	"github.com/ternarybob/hubscout/internal/domainproc"
	"github.com/ternarybob/hubscout/internal/events"
	"github.com/ternarybob/hubscout/internal/fetch"
	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/models"
	"github.com/ternarybob/hubscout/internal/storage/memory"
)

type okValidator struct{}

func (okValidator) ValidatePlaceHub(body string, place models.Place, domain string) interfaces.ValidationResult {
	return interfaces.ValidationResult{IsValid: true, Title: "Hub", NavLinkCount: 5, ArticleLinkCount: 8}
}
func (okValidator) ValidateTopicHub(body string, topic models.Topic, domain string) interfaces.ValidationResult {
	return interfaces.ValidationResult{IsValid: true}
}
func (okValidator) ValidatePlacePlaceHub(body string, place models.Place, topic models.Topic, domain string) interfaces.ValidationResult {
	return interfaces.ValidationResult{IsValid: true}
}

type noopFetcher struct{}

func (noopFetcher) Fetch(ctx context.Context, url string, opts interfaces.FetchOptions) (*interfaces.FetchResult, error) {
	return &interfaces.FetchResult{Ok: true, HTTPStatus: 200, FinalURL: url, Body: "<html></html>"}, nil
}

type noopPlaces struct{}

func (noopPlaces) Places(ctx context.Context, kinds []models.PlaceKind, limit int) ([]models.Place, error) {
	return nil, nil
}
func (noopPlaces) Topics(ctx context.Context, limit int) ([]models.Topic, error) { return nil, nil }

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	bundle := memory.NewBundle()
	logger := arbor.NewLogger()
	bus := events.NewBus(bundle.Events, logger)
	recorder := fetch.NewRecorder(bundle.Fetches, nil, logger)

	processor := domainproc.NewProcessor(domainproc.Deps{
		Candidates:     bundle.Candidates,
		Hubs:           bundle.Hubs,
		Audit:          bundle.Audit,
		Determinations: bundle.Determinations,
		Recorder:       recorder,
		Fetcher:        noopFetcher{},
		Validator:      okValidator{},
		Places:         noopPlaces{},
		Telemetry:      bus,
		Logger:         logger,
	})
	return NewRegistry(processor)
}

func TestListOperationsReturnsAllRegisteredNames(t *testing.T) {
	r := newTestRegistry(t)
	list := r.ListOperations()
	assert.Len(t, list, 5)

	names := make(map[string]bool)
	for _, o := range list {
		names[o.Name] = true
		assert.NotEmpty(t, o.Summary)
		assert.NotNil(t, o.DefaultOptions)
	}
	assert.True(t, names["crawlPlaceHubs"])
	assert.True(t, names["ensureCountryHubs"])
	assert.True(t, names["discoverTopicHubs"])
}

func TestRunOperationUnknownNameIsUnknownOperationError(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.RunOperation(context.Background(), "does-not-exist", "https://news.example", nil, nil)
	require.Error(t, err)
	assert.IsType(t, &apperrors.UnknownOperationError{}, err)
}

func TestRunOperationInvalidStartURLIsInvalidInputError(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.RunOperation(context.Background(), "ensureCountryHubs", "not-a-url", nil, nil)
	require.Error(t, err)
	assert.IsType(t, &apperrors.InvalidInputError{}, err)
}

func TestRunOperationAppliesOverridesOnTopOfDefaults(t *testing.T) {
	r := newTestRegistry(t)
	result, err := r.RunOperation(context.Background(), "ensureCountryHubs", "https://news.example", map[string]any{
		"apply": false,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
	assert.NotNil(t, result.Stats)
	assert.GreaterOrEqual(t, result.ElapsedMs, int64(0))
}
