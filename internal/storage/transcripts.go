package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Transcript is one row of the transcripts table.
type Transcript struct {
	ID                  string    `json:"transcript_id"`
	RecordingID         string    `json:"recording_id"`
	TextPath            string    `json:"text_path"`
	SRTPath             *string   `json:"srt_path,omitempty"`
	GDriveURL           *string   `json:"gdrive_url,omitempty"`
	Language            *string   `json:"language,omitempty"`
	LanguageProbability *float64  `json:"language_probability,omitempty"`
	Model               string    `json:"model"`
	Device              string    `json:"device"`
	Compute             string    `json:"compute"`
	DurationS           *float64  `json:"duration_s,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// CreateTranscript inserts a transcript row.
func (d *DB) CreateTranscript(tr *Transcript) error {
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = time.Now().UTC()
	}
	_, err := d.db.Exec(`
	INSERT INTO transcripts (id, recording_id, text_path, srt_path, gdrive_url,
		language, language_probability, model, device, compute, duration_s, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.RecordingID, tr.TextPath, tr.SRTPath, tr.GDriveURL,
		tr.Language, tr.LanguageProbability, tr.Model, tr.Device, tr.Compute,
		tr.DurationS, tr.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transcript: %v", err)
	}
	return nil
}

// GetTranscript returns the transcript row, or nil when absent.
func (d *DB) GetTranscript(id string) (*Transcript, error) {
	row := d.db.QueryRow(`
	SELECT id, recording_id, text_path, srt_path, gdrive_url, language,
	       language_probability, model, device, compute, duration_s, created_at
	FROM transcripts WHERE id = ?`, id)

	var (
		tr       Transcript
		srtPath  sql.NullString
		driveURL sql.NullString
		lang     sql.NullString
		langProb sql.NullFloat64
		duration sql.NullFloat64
	)
	err := row.Scan(&tr.ID, &tr.RecordingID, &tr.TextPath, &srtPath, &driveURL,
		&lang, &langProb, &tr.Model, &tr.Device, &tr.Compute, &duration, &tr.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %v", err)
	}
	if srtPath.Valid {
		tr.SRTPath = &srtPath.String
	}
	if driveURL.Valid {
		tr.GDriveURL = &driveURL.String
	}
	if lang.Valid {
		tr.Language = &lang.String
	}
	if langProb.Valid {
		tr.LanguageProbability = &langProb.Float64
	}
	if duration.Valid {
		tr.DurationS = &duration.Float64
	}
	return &tr, nil
}

// DeleteTranscript removes the row. Returns true when a row was deleted.
func (d *DB) DeleteTranscript(id string) (bool, error) {
	res, err := d.db.Exec(`DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete transcript: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
