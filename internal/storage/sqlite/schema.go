package sqlite

const schemaSQL = `
CREATE TABLE IF NOT EXISTS candidates (
	domain            TEXT NOT NULL,
	canonical_url     TEXT NOT NULL,
	place_kind        TEXT,
	place_name        TEXT,
	place_code        TEXT,
	topic_slug        TEXT,
	analyzer          TEXT NOT NULL,
	strategy          TEXT NOT NULL,
	score             REAL,
	confidence        REAL,
	pattern           TEXT,
	signals           TEXT,
	status            TEXT NOT NULL,
	validation_status TEXT,
	error_message     TEXT,
	attempt_id        TEXT NOT NULL,
	last_seen_at      INTEGER NOT NULL,
	PRIMARY KEY (domain, canonical_url)
);
CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates(domain, status);

CREATE TABLE IF NOT EXISTS fetch_rows (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	url                TEXT NOT NULL,
	domain             TEXT NOT NULL,
	http_status        INTEGER NOT NULL,
	http_success       INTEGER NOT NULL,
	title              TEXT,
	request_method     TEXT NOT NULL,
	request_started_at INTEGER NOT NULL,
	fetched_at         INTEGER NOT NULL,
	bytes_downloaded   INTEGER NOT NULL,
	content_type       TEXT,
	content_length     INTEGER,
	total_ms           INTEGER NOT NULL,
	download_ms        INTEGER NOT NULL,
	redirect_count     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetch_rows_url_fetched_at ON fetch_rows(url, fetched_at DESC);
CREATE INDEX IF NOT EXISTS idx_fetch_rows_domain ON fetch_rows(domain);

CREATE TABLE IF NOT EXISTS hubs (
	domain              TEXT NOT NULL,
	url                 TEXT NOT NULL,
	place_slug          TEXT,
	place_kind          TEXT,
	topic_slug          TEXT,
	topic_label         TEXT,
	title               TEXT,
	nav_links_count     INTEGER NOT NULL DEFAULT 0,
	article_links_count INTEGER NOT NULL DEFAULT 0,
	evidence_json       TEXT,
	created_at          INTEGER NOT NULL,
	updated_at          INTEGER NOT NULL,
	PRIMARY KEY (domain, url)
);

CREATE TABLE IF NOT EXISTS audit_entries (
	id                       INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id                   TEXT NOT NULL,
	attempt_id               TEXT NOT NULL,
	domain                   TEXT NOT NULL,
	url                      TEXT NOT NULL,
	place_kind               TEXT,
	place_name               TEXT,
	decision                 TEXT NOT NULL,
	validation_metrics_json  TEXT,
	created_at               INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_created_at ON audit_entries(created_at);

CREATE TABLE IF NOT EXISTS domain_determinations (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	domain         TEXT NOT NULL,
	determination  TEXT NOT NULL,
	reason         TEXT NOT NULL,
	details        TEXT,
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_domain_determinations_domain ON domain_determinations(domain, created_at DESC);

CREATE TABLE IF NOT EXISTS task_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	task_type   TEXT NOT NULL,
	task_id     TEXT NOT NULL,
	event_type  TEXT NOT NULL,
	category    TEXT NOT NULL,
	severity    TEXT NOT NULL,
	data        TEXT,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_task_events_task_id ON task_events(task_id, created_at);

CREATE TABLE IF NOT EXISTS jobs (
	id               TEXT PRIMARY KEY,
	operation_name   TEXT NOT NULL,
	start_url        TEXT NOT NULL,
	overrides        TEXT,
	status           TEXT NOT NULL,
	created_at       INTEGER NOT NULL,
	started_at       INTEGER,
	finished_at      INTEGER,
	progress         TEXT,
	abort_requested  INTEGER NOT NULL DEFAULT 0,
	paused           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sequence_runs (
	id                TEXT PRIMARY KEY,
	sequence_name     TEXT NOT NULL,
	status            TEXT NOT NULL,
	started_at        INTEGER NOT NULL,
	finished_at       INTEGER,
	summary_json      TEXT
);
`

// initSchema creates every table/index the engine needs, idempotently.
func (d *DB) initSchema() error {
	_, err := d.db.Exec(schemaSQL)
	return err
}
