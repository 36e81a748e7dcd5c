package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/audioscribe/audioscribe/internal/jobs"
)

// JobsHandler exposes job status over HTTP and WebSocket.
type JobsHandler struct {
	mgr *jobs.Manager
}

// NewJobsHandler creates the handler.
func NewJobsHandler(mgr *jobs.Manager) *JobsHandler {
	return &JobsHandler{mgr: mgr}
}

// Get handles GET /api/jobs/:id.
func (h *JobsHandler) Get(c *fiber.Ctx) error {
	job, err := h.mgr.Get(c.Params("id"))
	if err == jobs.ErrNotFound {
		return c.Status(404).JSON(fiber.Map{
			"error": "job not found",
			"code":  "ERR_NOT_FOUND",
		})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(job)
}

// Delete handles DELETE /api/jobs/:id. Deleting a job whose pipeline is
// still running is safe: its remaining updates land on nothing.
func (h *JobsHandler) Delete(c *fiber.Ctx) error {
	deleted, err := h.mgr.Delete(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if !deleted {
		return c.Status(404).JSON(fiber.Map{
			"error": "job not found",
			"code":  "ERR_NOT_FOUND",
		})
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// Watch handles GET /ws/jobs/:id: pushes job snapshots every half second
// until the job reaches a terminal state or disappears.
func (h *JobsHandler) Watch(c *websocket.Conn) {
	defer c.Close()
	jobID := c.Params("id")

	for {
		job, err := h.mgr.Get(jobID)
		if err == jobs.ErrNotFound {
			c.WriteMessage(websocket.TextMessage, []byte(`{"error":"job not found"}`))
			return
		}
		if err != nil {
			log.Printf("WebSocket watch for job %s: %v", jobID, err)
			return
		}

		payload, err := json.Marshal(job)
		if err != nil {
			return
		}
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
		if jobs.IsTerminal(job) {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
}
