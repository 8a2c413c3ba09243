package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/domainproc"
	"github.com/ternarybob/hubscout/internal/events"
	"github.com/ternarybob/hubscout/internal/facade"
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
	return interfaces.ValidationResult{IsValid: true}
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

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := sqlite.Open(logger, sqlite.Options{Path: filepath.Join(t.TempDir(), "server.db")})
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

	jobBus := events.NewBus(sqlite.NewEventStore(db), logger)
	jobReg, err := jobs.NewRegistry(sqlite.NewJobStore(db), db.Conn(), jobBus, logger, true)
	require.NoError(t, err)
	t.Cleanup(jobReg.Close)

	svc := facade.New(opsReg, runner, loader, jobReg, nil, nil, t.TempDir(), logger)
	return New(svc, bus, logger)
}

func TestHealthzReturnsOk(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAvailabilityListsOperationsAndPresets(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/availability", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	totals := body["totals"].(map[string]any)
	assert.EqualValues(t, 5, totals["operations"])
}

func TestRunOperationEndpoint(t *testing.T) {
	srv := newTestServer(t)
	payload, _ := json.Marshal(map[string]any{"startUrl": "https://news.example"})
	req := httptest.NewRequest(http.MethodPost, "/v1/operations/ensureCountryHubs/run", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "operation", body["mode"])
}

func TestRunUnknownOperationIsBadRequest(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/operations/does-not-exist/run", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
}

func TestGetUnknownJobIsNotFound(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/job_does-not-exist", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartOperationThenFetchJob(t *testing.T) {
	srv := newTestServer(t)
	payload, _ := json.Marshal(map[string]any{"startUrl": "https://news.example"})
	req := httptest.NewRequest(http.MethodPost, "/v1/operations/ensureCountryHubs/start", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var started map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	jobID := started["jobId"].(string)
	require.NotEmpty(t, jobID)

	getReq := httptest.NewRequest(http.MethodGet, "/v1/jobs/"+jobID, nil)
	getRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(getRec, getReq)
	assert.Equal(t, http.StatusOK, getRec.Code)
}
