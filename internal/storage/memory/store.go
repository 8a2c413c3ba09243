// Package memory provides in-memory implementations of every store
// interface in internal/interfaces, for fast unit tests that exercise the
// domain processor and sequence runner without a sqlite file on disk, per
// the design note in spec §9 ("provide a default relational implementation
// and an in-memory one for tests").
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/models"
)

type key struct{ domain, url string }

// state is the shared map set behind every store wrapper below; one state
// instance backs a consistent in-memory "database" for one test.
type state struct {
	mu             sync.Mutex
	candidates     map[key]*models.Candidate
	fetches        map[string][]*models.FetchRow
	hubs           map[key]*models.Hub
	audit          []*models.AuditEntry
	determinations map[string][]*models.DomainDetermination
	events         []*models.TaskEvent
	jobs           map[string]*models.Job
}

func newState() *state {
	return &state{
		candidates:     make(map[key]*models.Candidate),
		fetches:        make(map[string][]*models.FetchRow),
		hubs:           make(map[key]*models.Hub),
		determinations: make(map[string][]*models.DomainDetermination),
		jobs:           make(map[string]*models.Job),
	}
}

// Bundle groups one store wrapper per interface over a single shared state,
// mirroring storage.Bundle's shape so callers can swap sqlite for memory.
type Bundle struct {
	Candidates     *CandidateStore
	Fetches        *FetchStore
	Hubs           *HubStore
	Audit          *AuditStore
	Determinations *DeterminationStore
	Events         *EventStore
	Jobs           *JobStore
}

// NewBundle constructs a fresh, empty in-memory store bundle.
func NewBundle() *Bundle {
	st := newState()
	return &Bundle{
		Candidates:     &CandidateStore{st: st},
		Fetches:        &FetchStore{st: st},
		Hubs:           &HubStore{st: st},
		Audit:          &AuditStore{st: st},
		Determinations: &DeterminationStore{st: st},
		Events:         &EventStore{st: st},
		Jobs:           &JobStore{st: st},
	}
}

// CandidateStore implements interfaces.CandidateStore.
type CandidateStore struct{ st *state }

var _ interfaces.CandidateStore = (*CandidateStore)(nil)

func (s *CandidateStore) SaveCandidate(ctx context.Context, c *models.Candidate) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	cp := *c
	s.st.candidates[key{c.Domain, c.CanonicalURL}] = &cp
	return nil
}

func (s *CandidateStore) MarkStatus(ctx context.Context, domain, url string, status models.CandidateStatus, httpStatus int, validationStatus, errMessage string, lastSeenAt time.Time) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	c, ok := s.st.candidates[key{domain, url}]
	if !ok {
		return nil
	}
	c.Status = status
	if validationStatus != "" {
		c.ValidationStatus = validationStatus
	}
	c.LastSeenAt = lastSeenAt
	return nil
}

func (s *CandidateStore) UpdateValidation(ctx context.Context, domain, url string, validationStatus string, signals map[string]any) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	c, ok := s.st.candidates[key{domain, url}]
	if !ok {
		return nil
	}
	c.ValidationStatus = validationStatus
	c.Signals = signals
	return nil
}

func (s *CandidateStore) Get(ctx context.Context, domain, url string) (*models.Candidate, bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	c, ok := s.st.candidates[key{domain, url}]
	if !ok {
		return nil, false, nil
	}
	cp := *c
	return &cp, true, nil
}

func (s *CandidateStore) ListByDomain(ctx context.Context, domain string) ([]*models.Candidate, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	var out []*models.Candidate
	for k, c := range s.st.candidates {
		if k.domain == domain {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FetchStore implements interfaces.FetchStore.
type FetchStore struct{ st *state }

var _ interfaces.FetchStore = (*FetchStore)(nil)

func (s *FetchStore) Record(ctx context.Context, row *models.FetchRow) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	cp := *row
	cp.ID = int64(len(s.st.fetches[row.URL]) + 1)
	s.st.fetches[row.URL] = append(s.st.fetches[row.URL], &cp)
	return nil
}

func (s *FetchStore) LatestFetch(ctx context.Context, url string) (*models.FetchRow, bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	rows := s.st.fetches[url]
	if len(rows) == 0 {
		return nil, false, nil
	}
	latest := rows[0]
	for _, r := range rows[1:] {
		if r.FetchedAt.After(latest.FetchedAt) {
			latest = r
		}
	}
	cp := *latest
	return &cp, true, nil
}

func (s *FetchStore) CountByDomain(ctx context.Context, domain string) (int, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	count := 0
	for _, rows := range s.st.fetches {
		for _, r := range rows {
			if r.Domain == domain {
				count++
			}
		}
	}
	return count, nil
}

// HubStore implements interfaces.HubStore.
type HubStore struct{ st *state }

var _ interfaces.HubStore = (*HubStore)(nil)

func (s *HubStore) Upsert(ctx context.Context, hub *models.Hub) (bool, bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	k := key{hub.Domain, hub.URL}
	now := time.Now()
	existing, found := s.st.hubs[k]
	if !found {
		cp := *hub
		cp.CreatedAt = now
		cp.UpdatedAt = now
		s.st.hubs[k] = &cp
		return true, false, nil
	}
	if hubFieldsEqual(existing, hub) {
		return false, false, nil
	}
	cp := *hub
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = now
	s.st.hubs[k] = &cp
	return false, true, nil
}

func hubFieldsEqual(a, b *models.Hub) bool {
	return a.PlaceSlug == b.PlaceSlug && a.PlaceKind == b.PlaceKind && a.TopicSlug == b.TopicSlug &&
		a.TopicLabel == b.TopicLabel && a.Title == b.Title && a.NavLinksCount == b.NavLinksCount &&
		a.ArticleLinksCount == b.ArticleLinksCount && a.EvidenceJSON == b.EvidenceJSON
}

func (s *HubStore) ListByDomain(ctx context.Context, domain string) ([]*models.Hub, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	var out []*models.Hub
	for k, h := range s.st.hubs {
		if k.domain == domain {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AuditStore implements interfaces.AuditStore.
type AuditStore struct{ st *state }

var _ interfaces.AuditStore = (*AuditStore)(nil)

func (s *AuditStore) Append(ctx context.Context, e *models.AuditEntry) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	cp := *e
	cp.ID = int64(len(s.st.audit) + 1)
	s.st.audit = append(s.st.audit, &cp)
	return nil
}

// Entries exposes everything appended so far, for test assertions.
func (s *AuditStore) Entries() []*models.AuditEntry {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return append([]*models.AuditEntry(nil), s.st.audit...)
}

// DeterminationStore implements interfaces.DeterminationStore.
type DeterminationStore struct{ st *state }

var _ interfaces.DeterminationStore = (*DeterminationStore)(nil)

func (s *DeterminationStore) Append(ctx context.Context, d *models.DomainDetermination) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	cp := *d
	s.st.determinations[d.Domain] = append(s.st.determinations[d.Domain], &cp)
	return nil
}

func (s *DeterminationStore) Latest(ctx context.Context, domain string) (*models.DomainDetermination, bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	list := s.st.determinations[domain]
	if len(list) == 0 {
		return nil, false, nil
	}
	sorted := append([]*models.DomainDetermination(nil), list...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	cp := *sorted[0]
	return &cp, true, nil
}

// EventStore implements interfaces.EventStore.
type EventStore struct{ st *state }

var _ interfaces.EventStore = (*EventStore)(nil)

func (s *EventStore) Append(ctx context.Context, e *models.TaskEvent) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	cp := *e
	cp.ID = int64(len(s.st.events) + 1)
	s.st.events = append(s.st.events, &cp)
	return nil
}

func (s *EventStore) List(ctx context.Context, taskID string, limit int) ([]*models.TaskEvent, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	var out []*models.TaskEvent
	for _, e := range s.st.events {
		if e.TaskID == taskID {
			cp := *e
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// JobStore implements interfaces.JobStore.
type JobStore struct{ st *state }

var _ interfaces.JobStore = (*JobStore)(nil)

func (s *JobStore) Save(ctx context.Context, j *models.Job) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	cp := *j
	s.st.jobs[j.ID] = &cp
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*models.Job, bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	j, ok := s.st.jobs[id]
	if !ok {
		return nil, false, nil
	}
	cp := *j
	return &cp, true, nil
}

func (s *JobStore) List(ctx context.Context) ([]*models.Job, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	var out []*models.Job
	for _, j := range s.st.jobs {
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}
