package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/audioscribe/audioscribe/internal/storage"
	"github.com/audioscribe/audioscribe/internal/types"
)

// ErrNotFound is returned by Get for unknown job ids.
var ErrNotFound = errors.New("job not found")

// Manager owns every mutation of job rows. Pipelines hold only a job id
// and go through these methods, so there is a single writer per job while
// it runs. All updates are no-ops on rows that were deleted or have
// already reached a terminal state; the guarded statements in the store
// enforce that, which makes a delete racing a live run harmless.
type Manager struct {
	store *storage.DB
}

// NewManager creates a manager over the given store.
func NewManager(store *storage.DB) *Manager {
	return &Manager{store: store}
}

// Create allocates a new job in queued state and returns its id.
// The payload is stored as JSON for provenance.
func (m *Manager) Create(kind string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %v", err)
	}
	id := storage.NewID("job")
	if err := m.store.CreateJob(id, kind, string(body)); err != nil {
		return "", err
	}
	return id, nil
}

// MarkRunning moves a queued job to running with an initial stage label.
// Silently does nothing when the job is gone or already past queued.
func (m *Manager) MarkRunning(id string) {
	if err := m.store.MarkJobRunning(id, "loading_model"); err != nil {
		log.Printf("failed to mark job %s running: %v", id, err)
	}
}

// UpdateProgress records progress for a running job. The value is clamped
// into [0,1]. A nil stage or eta leaves the previous value in place; calls
// after a terminal transition are dropped.
func (m *Manager) UpdateProgress(id string, progress float64, stage *string, etaSeconds *float64) {
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	if err := m.store.UpdateJobProgress(id, progress, stage, etaSeconds); err != nil {
		log.Printf("failed to update progress for job %s: %v", id, err)
	}
}

// Complete moves a running job to done and records the result reference.
func (m *Manager) Complete(id, resultRef string) error {
	return m.store.CompleteJob(id, resultRef)
}

// Fail moves a queued or running job to error with a human-readable cause.
func (m *Manager) Fail(id, message string) error {
	return m.store.FailJob(id, message)
}

// Get returns the job, or ErrNotFound.
func (m *Manager) Get(id string) (*storage.Job, error) {
	job, err := m.store.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrNotFound
	}
	return job, nil
}

// Delete removes the job row. Returns true when a row existed. An
// in-flight run keyed to the id keeps going, but all of its subsequent
// updates land on nothing.
func (m *Manager) Delete(id string) (bool, error) {
	return m.store.DeleteJob(id)
}

// IsTerminal reports whether the job has reached done or error.
func IsTerminal(job *storage.Job) bool {
	return types.IsTerminal(job.Status)
}
