package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Recording is one row of the recordings table.
type Recording struct {
	ID           string    `json:"recording_id"`
	OriginalExt  string    `json:"original_ext"`
	OriginalPath string    `json:"-"`
	DurationS    float64   `json:"duration_s"`
	SHA256       string    `json:"sha256"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateRecording inserts a recording row.
func (d *DB) CreateRecording(rec *Recording) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := d.db.Exec(`
	INSERT INTO recordings (id, original_ext, original_path, duration_s, sha256, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OriginalExt, rec.OriginalPath, rec.DurationS, rec.SHA256, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recording: %v", err)
	}
	return nil
}

// GetRecording returns the recording row, or nil when absent.
func (d *DB) GetRecording(id string) (*Recording, error) {
	row := d.db.QueryRow(`
	SELECT id, original_ext, original_path, duration_s, sha256, created_at
	FROM recordings WHERE id = ?`, id)

	var rec Recording
	err := row.Scan(&rec.ID, &rec.OriginalExt, &rec.OriginalPath,
		&rec.DurationS, &rec.SHA256, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recording: %v", err)
	}
	return &rec, nil
}

// ListRecordings returns the most recent recordings.
func (d *DB) ListRecordings(limit int) ([]Recording, error) {
	rows, err := d.db.Query(`
	SELECT id, original_ext, original_path, duration_s, sha256, created_at
	FROM recordings ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %v", err)
	}
	defer rows.Close()

	var recs []Recording
	for rows.Next() {
		var rec Recording
		if err := rows.Scan(&rec.ID, &rec.OriginalExt, &rec.OriginalPath,
			&rec.DurationS, &rec.SHA256, &rec.CreatedAt); err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
