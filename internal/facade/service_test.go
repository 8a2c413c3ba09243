package facade

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/domainproc"
	"github.com/ternarybob/hubscout/internal/events"
	"github.com/ternarybob/hubscout/internal/fetch"
	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/jobs"
	"github.com/ternarybob/hubscout/internal/models"
	"github.com/ternarybob/hubscout/internal/operations"
	"github.com/ternarybob/hubscout/internal/sequence"
	"github.com/ternarybob/hubscout/internal/storage/memory"
	"github.com/ternarybob/hubscout/internal/storage/sqlite"
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

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := arbor.NewLogger()
	dbPath := filepath.Join(t.TempDir(), "facade.db")
	db, err := sqlite.Open(logger, sqlite.Options{Path: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bundle := memory.NewBundle()
	bus := events.NewBus(bundle.Events, logger)
	recorder := fetch.NewRecorder(bundle.Fetches, nil, logger)
	processor := domainproc.NewProcessor(domainproc.Deps{
		Candidates: bundle.Candidates, Hubs: bundle.Hubs, Audit: bundle.Audit,
		Determinations: bundle.Determinations, Recorder: recorder, Fetcher: noopFetcher{},
		Validator: okValidator{}, Places: noopPlaces{}, Telemetry: bus, Logger: logger,
	})
	opsReg := operations.NewRegistry(processor)
	loader := sequence.NewLoader()
	runner := sequence.NewRunner(opsReg, bus, logger)

	jobStore := sqlite.NewJobStore(db)
	jobBus := events.NewBus(sqlite.NewEventStore(db), logger)
	jobReg, err := jobs.NewRegistry(jobStore, db.Conn(), jobBus, logger, true)
	require.NoError(t, err)
	t.Cleanup(jobReg.Close)

	configDir := t.TempDir()
	return New(opsReg, runner, loader, jobReg, nil, nil, configDir, logger)
}

func TestGetAvailabilityListsOperationsAndPresets(t *testing.T) {
	s := newTestService(t)
	avail := s.GetAvailability()
	assert.Len(t, avail.Operations, 5)
	assert.Len(t, avail.SequencePresets, 2)
}

func TestRunOperationSynchronous(t *testing.T) {
	s := newTestService(t)
	result, err := s.RunOperation(context.Background(), "ensureCountryHubs", "https://news.example", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
}

func TestRunSequencePresetRunsAllSteps(t *testing.T) {
	s := newTestService(t)
	result, err := s.RunSequencePreset(context.Background(), "country-sweep", SequenceRunRequest{
		StartURL: "https://news.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
	assert.Len(t, result.Steps, 2)
}

func TestRunSequenceConfigLoadsFromDisk(t *testing.T) {
	s := newTestService(t)
	doc := `{"name":"from-disk","startUrl":"@cli.startUrl","steps":[{"operation":"ensureCountryHubs"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(s.configDir, "evening.json"), []byte(doc), 0644))

	result, meta, err := s.RunSequenceConfig(context.Background(), ConfigRunRequest{
		SequenceRunRequest: SequenceRunRequest{StartURL: "https://news.example"},
		ConfigName:         "evening",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
	assert.Contains(t, meta.ResolvedTokens, "@cli.startUrl")
}

func TestStartOperationGoesThroughJobRegistry(t *testing.T) {
	s := newTestService(t)
	job, err := s.StartOperation(context.Background(), "ensureCountryHubs", "https://news.example", nil)
	require.NoError(t, err)
	assert.Equal(t, "ensureCountryHubs", job.OperationName)

	got, err := s.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}
