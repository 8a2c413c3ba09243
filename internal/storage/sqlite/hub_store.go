package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/ternarybob/hubscout/internal/models"
)

// HubStore is the sqlite-backed implementation of interfaces.HubStore.
// Upsert key is (domain, url); an update only writes when a tracked field
// actually changed, per spec §3.
type HubStore struct {
	db *DB
}

func NewHubStore(db *DB) *HubStore { return &HubStore{db: db} }

func (s *HubStore) Upsert(ctx context.Context, hub *models.Hub) (bool, bool, error) {
	existing, found, err := s.get(ctx, hub.Domain, hub.URL)
	if err != nil {
		return false, false, err
	}

	now := time.Now()
	if !found {
		hub.CreatedAt = now
		hub.UpdatedAt = now
		err = retryWithExponentialBackoff(func() error {
			_, err := s.db.Conn().ExecContext(ctx, `
				INSERT INTO hubs (domain, url, place_slug, place_kind, topic_slug, topic_label, title,
					nav_links_count, article_links_count, evidence_json, created_at, updated_at)
				VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
			`, hub.Domain, hub.URL, hub.PlaceSlug, hub.PlaceKind, hub.TopicSlug, hub.TopicLabel, hub.Title,
				hub.NavLinksCount, hub.ArticleLinksCount, hub.EvidenceJSON, now.UnixMilli(), now.UnixMilli())
			return err
		})
		return err == nil, false, err
	}

	if !hubChanged(existing, hub) {
		return false, false, nil
	}

	hub.CreatedAt = existing.CreatedAt
	hub.UpdatedAt = now
	err = retryWithExponentialBackoff(func() error {
		_, err := s.db.Conn().ExecContext(ctx, `
			UPDATE hubs SET place_slug=?, place_kind=?, topic_slug=?, topic_label=?, title=?,
				nav_links_count=?, article_links_count=?, evidence_json=?, updated_at=?
			WHERE domain=? AND url=?
		`, hub.PlaceSlug, hub.PlaceKind, hub.TopicSlug, hub.TopicLabel, hub.Title,
			hub.NavLinksCount, hub.ArticleLinksCount, hub.EvidenceJSON, now.UnixMilli(), hub.Domain, hub.URL)
		return err
	})
	return false, err == nil, err
}

// hubChanged compares the tracked fields only (createdAt/updatedAt are
// excluded, since they are never equal by construction).
func hubChanged(a, b *models.Hub) bool {
	return a.PlaceSlug != b.PlaceSlug ||
		a.PlaceKind != b.PlaceKind ||
		a.TopicSlug != b.TopicSlug ||
		a.TopicLabel != b.TopicLabel ||
		a.Title != b.Title ||
		a.NavLinksCount != b.NavLinksCount ||
		a.ArticleLinksCount != b.ArticleLinksCount ||
		a.EvidenceJSON != b.EvidenceJSON
}

func (s *HubStore) get(ctx context.Context, domain, url string) (*models.Hub, bool, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT domain, url, place_slug, place_kind, topic_slug, topic_label, title,
			nav_links_count, article_links_count, evidence_json, created_at, updated_at
		FROM hubs WHERE domain=? AND url=?
	`, domain, url)
	h, err := scanHub(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return h, true, nil
}

func (s *HubStore) ListByDomain(ctx context.Context, domain string) ([]*models.Hub, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT domain, url, place_slug, place_kind, topic_slug, topic_label, title,
			nav_links_count, article_links_count, evidence_json, created_at, updated_at
		FROM hubs WHERE domain=?
	`, domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Hub
	for rows.Next() {
		h, err := scanHub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHub(row rowScanner) (*models.Hub, error) {
	var h models.Hub
	var placeSlug, placeKind, topicSlug, topicLabel, title, evidence sql.NullString
	var createdAt, updatedAt int64

	if err := row.Scan(&h.Domain, &h.URL, &placeSlug, &placeKind, &topicSlug, &topicLabel, &title,
		&h.NavLinksCount, &h.ArticleLinksCount, &evidence, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	h.PlaceSlug = placeSlug.String
	h.PlaceKind = placeKind.String
	h.TopicSlug = topicSlug.String
	h.TopicLabel = topicLabel.String
	h.Title = title.String
	h.EvidenceJSON = evidence.String
	h.CreatedAt = time.UnixMilli(createdAt)
	h.UpdatedAt = time.UnixMilli(updatedAt)
	return &h, nil
}
