package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/hubscout/internal/models"
)

// CandidateStore is the sqlite-backed implementation of
// interfaces.CandidateStore.
type CandidateStore struct {
	db *DB
}

func NewCandidateStore(db *DB) *CandidateStore { return &CandidateStore{db: db} }

// SaveCandidate upserts by (domain, canonicalUrl), per spec §4.3.
func (s *CandidateStore) SaveCandidate(ctx context.Context, c *models.Candidate) error {
	signals, err := json.Marshal(c.Signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}

	return retryWithExponentialBackoff(func() error {
		_, err := s.db.Conn().ExecContext(ctx, `
			INSERT INTO candidates (domain, canonical_url, place_kind, place_name, place_code, topic_slug,
				analyzer, strategy, score, confidence, pattern, signals, status, validation_status, attempt_id, last_seen_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(domain, canonical_url) DO UPDATE SET
				place_kind=excluded.place_kind, place_name=excluded.place_name, place_code=excluded.place_code,
				topic_slug=excluded.topic_slug, analyzer=excluded.analyzer, strategy=excluded.strategy,
				score=excluded.score, confidence=excluded.confidence, pattern=excluded.pattern,
				signals=excluded.signals, status=excluded.status, validation_status=excluded.validation_status,
				attempt_id=excluded.attempt_id, last_seen_at=excluded.last_seen_at
		`, c.Domain, c.CanonicalURL, c.PlaceKind, c.PlaceName, c.PlaceCode, c.TopicSlug,
			c.Analyzer, c.Strategy, c.Score, c.Confidence, c.Pattern, string(signals),
			string(c.Status), c.ValidationStatus, c.AttemptID, c.LastSeenAt.UnixMilli())
		return err
	})
}

// MarkStatus mutates only the status fields of an existing candidate.
func (s *CandidateStore) MarkStatus(ctx context.Context, domain, url string, status models.CandidateStatus, httpStatus int, validationStatus, errMessage string, lastSeenAt time.Time) error {
	return retryWithExponentialBackoff(func() error {
		_, err := s.db.Conn().ExecContext(ctx, `
			UPDATE candidates SET status=?, validation_status=?, error_message=?, last_seen_at=?
			WHERE domain=? AND canonical_url=?
		`, string(status), nullString(validationStatus), nullString(errMessage), lastSeenAt.UnixMilli(), domain, url)
		return err
	})
}

// UpdateValidation mutates validation fields and signals only.
func (s *CandidateStore) UpdateValidation(ctx context.Context, domain, url string, validationStatus string, signals map[string]any) error {
	encoded, err := json.Marshal(signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}
	return retryWithExponentialBackoff(func() error {
		_, err := s.db.Conn().ExecContext(ctx, `
			UPDATE candidates SET validation_status=?, signals=? WHERE domain=? AND canonical_url=?
		`, validationStatus, string(encoded), domain, url)
		return err
	})
}

func (s *CandidateStore) Get(ctx context.Context, domain, url string) (*models.Candidate, bool, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT domain, canonical_url, place_kind, place_name, place_code, topic_slug, analyzer, strategy,
			score, confidence, pattern, signals, status, validation_status, attempt_id, last_seen_at
		FROM candidates WHERE domain=? AND canonical_url=?
	`, domain, url)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *CandidateStore) ListByDomain(ctx context.Context, domain string) ([]*models.Candidate, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT domain, canonical_url, place_kind, place_name, place_code, topic_slug, analyzer, strategy,
			score, confidence, pattern, signals, status, validation_status, attempt_id, last_seen_at
		FROM candidates WHERE domain=?
	`, domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*models.Candidate, error) {
	var c models.Candidate
	var placeKind, placeName, placeCode, topicSlug, pattern, validationStatus sql.NullString
	var score, confidence sql.NullFloat64
	var signals sql.NullString
	var status string
	var lastSeenAt int64

	if err := row.Scan(&c.Domain, &c.CanonicalURL, &placeKind, &placeName, &placeCode, &topicSlug,
		&c.Analyzer, &c.Strategy, &score, &confidence, &pattern, &signals, &status, &validationStatus,
		&c.AttemptID, &lastSeenAt); err != nil {
		return nil, err
	}

	c.PlaceKind = placeKind.String
	c.PlaceName = placeName.String
	c.PlaceCode = placeCode.String
	c.TopicSlug = topicSlug.String
	c.Pattern = pattern.String
	c.ValidationStatus = validationStatus.String
	c.Status = models.CandidateStatus(status)
	c.LastSeenAt = time.UnixMilli(lastSeenAt)
	if score.Valid {
		c.Score = &score.Float64
	}
	if confidence.Valid {
		c.Confidence = &confidence.Float64
	}
	if signals.Valid && signals.String != "" {
		_ = json.Unmarshal([]byte(signals.String), &c.Signals)
	}
	return &c, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
