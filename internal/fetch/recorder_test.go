package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/models"
	"github.com/ternarybob/hubscout/internal/storage/memory"
)

type failingMirror struct{ calls int }

func (m *failingMirror) Mirror(ctx context.Context, row *models.FetchRow) error {
	m.calls++
	return errors.New("legacy store unavailable")
}

func TestRecorderRecordAndLatestFetch(t *testing.T) {
	logger := arbor.NewLogger()
	bundle := memory.NewBundle()

	t.Run("latest fetch tracks the most recent record call", func(t *testing.T) {
		r := NewRecorder(bundle.Fetches, nil, logger)
		ctx := context.Background()

		first := &models.FetchRow{URL: "https://a.test/world/france", HTTPStatus: 200, FetchedAt: time.Now().Add(-time.Hour)}
		require.NoError(t, r.Record(ctx, first, "GET", "attempt-1", false))

		second := &models.FetchRow{URL: "https://a.test/world/france", HTTPStatus: 200, FetchedAt: time.Now()}
		require.NoError(t, r.Record(ctx, second, "GET", "attempt-2", false))

		latest, err := r.LatestFetch(ctx, "https://a.test/world/france")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.True(t, latest.FetchedAt.Equal(second.FetchedAt) || latest.FetchedAt.After(first.FetchedAt))
	})

	t.Run("unknown URL returns nil, no error", func(t *testing.T) {
		r := NewRecorder(bundle.Fetches, nil, logger)
		latest, err := r.LatestFetch(context.Background(), "https://a.test/never-fetched")
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("mirror failure is swallowed, primary write still succeeds", func(t *testing.T) {
		mirror := &failingMirror{}
		r := NewRecorder(bundle.Fetches, mirror, logger)
		row := &models.FetchRow{URL: "https://a.test/mirrored", HTTPStatus: 200, FetchedAt: time.Now()}
		err := r.Record(context.Background(), row, "GET", "attempt-3", false)
		assert.NoError(t, err)
		assert.Equal(t, 1, mirror.calls)
	})
}

func TestDecide(t *testing.T) {
	policy := CachePolicy{MaxAge: 7 * 24 * time.Hour, Refresh404: 180 * 24 * time.Hour, Retry4xx: 7 * 24 * time.Hour}
	now := time.Now()

	tests := []struct {
		name   string
		latest *models.FetchRow
		want   CacheDecision
	}{
		{"no history", nil, CacheDecisionNone},
		{"fresh 200", &models.FetchRow{HTTPStatus: 200, FetchedAt: now.Add(-time.Hour)}, CacheDecisionOK},
		{"stale 200 refetches", &models.FetchRow{HTTPStatus: 200, FetchedAt: now.Add(-8 * 24 * time.Hour)}, CacheDecisionNone},
		{"known 404 within window", &models.FetchRow{HTTPStatus: 404, FetchedAt: now.Add(-30 * 24 * time.Hour)}, CacheDecisionKnown404},
		{"404 past refresh window refetches", &models.FetchRow{HTTPStatus: 404, FetchedAt: now.Add(-200 * 24 * time.Hour)}, CacheDecisionNone},
		{"recent 403 skipped", &models.FetchRow{HTTPStatus: 403, FetchedAt: now.Add(-time.Hour)}, CacheDecisionRecent4xx},
		{"old 403 refetches", &models.FetchRow{HTTPStatus: 403, FetchedAt: now.Add(-8 * 24 * time.Hour)}, CacheDecisionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.latest, now, policy)
			assert.Equal(t, tt.want, got)
		})
	}
}
