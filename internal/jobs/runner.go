package jobs

import (
	"fmt"
	"log"
	"runtime/debug"
)

// Runner dispatches each job onto its own goroutine, fire-and-forget.
// The caller keeps no handle and must poll (or subscribe) for status.
// There is no cap and no shared queue; job count is bounded only by
// machine resources.
type Runner struct {
	mgr *Manager
}

// NewRunner creates a runner reporting panics through the manager.
func NewRunner(mgr *Manager) *Runner {
	return &Runner{mgr: mgr}
}

// Dispatch spawns the task in the background. A panicking task marks the
// job failed instead of taking down the process.
func (r *Runner) Dispatch(jobID string, task func()) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("PANIC in job %s: %v\n%s", jobID, rec, string(debug.Stack()))
				if err := r.mgr.Fail(jobID, fmt.Sprintf("worker panic: %v", rec)); err != nil {
					log.Printf("failed to record panic for job %s: %v", jobID, err)
				}
			}
		}()
		task()
	}()
	log.Printf("Job %s dispatched", jobID)
}
