package sqlite

import (
	"context"
	"database/sql"

	"github.com/ternarybob/hubscout/internal/models"
)

// AuditStore appends one row per validation outcome, per spec §3/§4.7.
type AuditStore struct {
	db *DB
}

func NewAuditStore(db *DB) *AuditStore { return &AuditStore{db: db} }

func (s *AuditStore) Append(ctx context.Context, e *models.AuditEntry) error {
	return retryWithExponentialBackoff(func() error {
		_, err := s.db.Conn().ExecContext(ctx, `
			INSERT INTO audit_entries (run_id, attempt_id, domain, url, place_kind, place_name,
				decision, validation_metrics_json, created_at)
			VALUES (?,?,?,?,?,?,?,?,?)
		`, e.RunID, e.AttemptID, e.Domain, e.URL, e.PlaceKind, e.PlaceName,
			string(e.Decision), e.ValidationMetricsJSON, e.CreatedAt.UnixMilli())
		return err
	})
}

// DeterminationStore appends terminal domain verdicts; latest is
// max(createdAt) per domain.
type DeterminationStore struct {
	db *DB
}

func NewDeterminationStore(db *DB) *DeterminationStore { return &DeterminationStore{db: db} }

func (s *DeterminationStore) Append(ctx context.Context, d *models.DomainDetermination) error {
	return retryWithExponentialBackoff(func() error {
		_, err := s.db.Conn().ExecContext(ctx, `
			INSERT INTO domain_determinations (domain, determination, reason, details, created_at)
			VALUES (?,?,?,?,?)
		`, d.Domain, string(d.Determination), d.Reason, d.Details, d.CreatedAt.UnixMilli())
		return err
	})
}

func (s *DeterminationStore) Latest(ctx context.Context, domain string) (*models.DomainDetermination, bool, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT id, domain, determination, reason, details, created_at
		FROM domain_determinations WHERE domain=? ORDER BY created_at DESC LIMIT 1
	`, domain)

	var d models.DomainDetermination
	var determination string
	var createdAt int64
	err := row.Scan(&d.ID, &d.Domain, &determination, &d.Reason, &d.Details, &createdAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	d.Determination = models.Determination(determination)
	d.CreatedAt = timeFromMillis(createdAt)
	return &d, true, nil
}
