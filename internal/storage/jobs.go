package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/audioscribe/audioscribe/internal/types"
)

// Job is one row of the jobs table.
type Job struct {
	ID         string     `json:"job_id"`
	Kind       string     `json:"kind"`
	Payload    string     `json:"-"`
	Status     string     `json:"status"`
	Progress   float64    `json:"progress"`
	Stage      string     `json:"stage"`
	ETASeconds *float64   `json:"eta_seconds,omitempty"`
	ResultRef  *string    `json:"result_ref,omitempty"`
	Error      *string    `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
}

// CreateJob inserts a new job in queued state.
func (d *DB) CreateJob(id, kind, payloadJSON string) error {
	now := time.Now().UTC()
	_, err := d.db.Exec(`
	INSERT INTO jobs (id, kind, payload_json, status, progress, stage, created_at, updated_at)
	VALUES (?, ?, ?, ?, 0, 'queued', ?, ?)`,
		id, kind, payloadJSON, types.StatusQueued, now, now)
	if err != nil {
		return fmt.Errorf("failed to create job: %v", err)
	}
	return nil
}

// GetJob returns the job row, or nil when no such row exists.
func (d *DB) GetJob(id string) (*Job, error) {
	row := d.db.QueryRow(`
	SELECT id, kind, payload_json, status, progress, stage, eta_seconds,
	       result_ref, error, created_at, updated_at, started_at
	FROM jobs WHERE id = ?`, id)

	var (
		j         Job
		eta       sql.NullFloat64
		resultRef sql.NullString
		errMsg    sql.NullString
		startedAt sql.NullTime
	)
	err := row.Scan(&j.ID, &j.Kind, &j.Payload, &j.Status, &j.Progress, &j.Stage,
		&eta, &resultRef, &errMsg, &j.CreatedAt, &j.UpdatedAt, &startedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %v", err)
	}
	if eta.Valid {
		j.ETASeconds = &eta.Float64
	}
	if resultRef.Valid {
		j.ResultRef = &resultRef.String
	}
	if errMsg.Valid {
		j.Error = &errMsg.String
	}
	if startedAt.Valid {
		j.StartedAt = &startedAt.Time
	}
	return &j, nil
}

// MarkJobRunning moves a queued job to running. The guarded WHERE clause
// makes the call a no-op for absent rows and for jobs already past queued,
// so a concurrent delete can never resurrect a row.
func (d *DB) MarkJobRunning(id, stage string) error {
	now := time.Now().UTC()
	_, err := d.db.Exec(`
	UPDATE jobs SET status = ?, stage = ?, progress = 0, eta_seconds = NULL,
	       started_at = ?, updated_at = ?
	WHERE id = ? AND status = ?`,
		types.StatusRunning, stage, now, now, id, types.StatusQueued)
	if err != nil {
		return fmt.Errorf("failed to mark job running: %v", err)
	}
	return nil
}

// UpdateJobProgress writes progress for a running job. A nil stage or eta
// leaves the stored value untouched (partial update); updates arriving
// after a terminal transition or a delete match no row and are dropped.
func (d *DB) UpdateJobProgress(id string, progress float64, stage *string, etaSeconds *float64) error {
	_, err := d.db.Exec(`
	UPDATE jobs SET progress = ?,
	       stage = COALESCE(?, stage),
	       eta_seconds = COALESCE(?, eta_seconds),
	       updated_at = ?
	WHERE id = ? AND status = ?`,
		progress, stage, etaSeconds, time.Now().UTC(), id, types.StatusRunning)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %v", err)
	}
	return nil
}

// CompleteJob moves a running job to done with its result reference.
// Progress is forced to 1.0.
func (d *DB) CompleteJob(id, resultRef string) error {
	_, err := d.db.Exec(`
	UPDATE jobs SET status = ?, progress = 1.0, eta_seconds = NULL,
	       result_ref = ?, updated_at = ?
	WHERE id = ? AND status = ?`,
		types.StatusDone, resultRef, time.Now().UTC(), id, types.StatusRunning)
	if err != nil {
		return fmt.Errorf("failed to complete job: %v", err)
	}
	return nil
}

// FailJob moves a queued or running job to error. Queued is allowed so
// pre-flight failures never pass through running.
func (d *DB) FailJob(id, message string) error {
	_, err := d.db.Exec(`
	UPDATE jobs SET status = ?, error = ?, eta_seconds = NULL, updated_at = ?
	WHERE id = ? AND status IN (?, ?)`,
		types.StatusError, message, time.Now().UTC(), id,
		types.StatusQueued, types.StatusRunning)
	if err != nil {
		return fmt.Errorf("failed to fail job: %v", err)
	}
	return nil
}

// DeleteJob removes the row. Returns true when a row was deleted.
func (d *DB) DeleteJob(id string) (bool, error) {
	res, err := d.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete job: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
