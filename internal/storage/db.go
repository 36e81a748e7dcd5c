package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database holding jobs, recordings and transcripts.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database and ensures the schema exists.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		status TEXT NOT NULL,
		progress REAL NOT NULL DEFAULT 0,
		stage TEXT NOT NULL DEFAULT 'queued',
		eta_seconds REAL,
		result_ref TEXT,
		error TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		started_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS recordings (
		id TEXT PRIMARY KEY,
		original_ext TEXT NOT NULL,
		original_path TEXT NOT NULL,
		duration_s REAL NOT NULL DEFAULT 0,
		sha256 TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		recording_id TEXT NOT NULL,
		text_path TEXT NOT NULL,
		srt_path TEXT,
		gdrive_url TEXT,
		language TEXT,
		language_probability REAL,
		model TEXT NOT NULL,
		device TEXT NOT NULL,
		compute TEXT NOT NULL,
		duration_s REAL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	CREATE INDEX IF NOT EXISTS idx_recordings_created_at ON recordings(created_at);
	CREATE INDEX IF NOT EXISTS idx_transcripts_recording ON transcripts(recording_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
