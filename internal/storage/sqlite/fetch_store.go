package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/ternarybob/hubscout/internal/models"
)

// FetchStore is the sqlite-backed implementation of interfaces.FetchStore
// (spec §4.2): append-only rows plus a latest-per-URL lookup.
type FetchStore struct {
	db *DB
}

func NewFetchStore(db *DB) *FetchStore { return &FetchStore{db: db} }

func (s *FetchStore) Record(ctx context.Context, row *models.FetchRow) error {
	return retryWithExponentialBackoff(func() error {
		res, err := s.db.Conn().ExecContext(ctx, `
			INSERT INTO fetch_rows (url, domain, http_status, http_success, title, request_method,
				request_started_at, fetched_at, bytes_downloaded, content_type, content_length,
				total_ms, download_ms, redirect_count)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		`, row.URL, row.Domain, row.HTTPStatus, row.HTTPSuccess, row.Title, row.RequestMethod,
			row.RequestStartedAt.UnixMilli(), row.FetchedAt.UnixMilli(), row.BytesDownloaded,
			row.ContentType, row.ContentLength, row.TotalMs, row.DownloadMs, row.RedirectCount)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err == nil {
			row.ID = id
		}
		return nil
	})
}

// LatestFetch returns the most recent row for url, using max(fetchedAt).
func (s *FetchStore) LatestFetch(ctx context.Context, url string) (*models.FetchRow, bool, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT id, url, domain, http_status, http_success, title, request_method,
			request_started_at, fetched_at, bytes_downloaded, content_type, content_length,
			total_ms, download_ms, redirect_count
		FROM fetch_rows WHERE url=? ORDER BY fetched_at DESC LIMIT 1
	`, url)

	var r models.FetchRow
	var title, contentType sql.NullString
	var contentLength sql.NullInt64
	var requestStartedAt, fetchedAt int64

	err := row.Scan(&r.ID, &r.URL, &r.Domain, &r.HTTPStatus, &r.HTTPSuccess, &title, &r.RequestMethod,
		&requestStartedAt, &fetchedAt, &r.BytesDownloaded, &contentType, &contentLength,
		&r.TotalMs, &r.DownloadMs, &r.RedirectCount)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	r.Title = title.String
	r.ContentType = contentType.String
	r.ContentLength = contentLength.Int64
	r.RequestStartedAt = time.UnixMilli(requestStartedAt)
	r.FetchedAt = time.UnixMilli(fetchedAt)
	return &r, true, nil
}

// CountByDomain returns the number of fetch rows recorded for domain,
// used by the readiness assessor's "some fetch history" evidence.
func (s *FetchStore) CountByDomain(ctx context.Context, domain string) (int, error) {
	var count int
	row := s.db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM fetch_rows WHERE domain=?`, domain)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
