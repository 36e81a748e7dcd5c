package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/audioscribe/audioscribe/internal/jobs"
	"github.com/audioscribe/audioscribe/internal/storage"
	"github.com/audioscribe/audioscribe/internal/transcription"
	"github.com/audioscribe/audioscribe/internal/types"
)

// TranscribeHandler creates transcription jobs.
type TranscribeHandler struct {
	store    *storage.DB
	mgr      *jobs.Manager
	runner   *jobs.Runner
	pipeline *transcription.Pipeline
}

// NewTranscribeHandler creates the handler.
func NewTranscribeHandler(store *storage.DB, mgr *jobs.Manager, runner *jobs.Runner, pipeline *transcription.Pipeline) *TranscribeHandler {
	return &TranscribeHandler{store: store, mgr: mgr, runner: runner, pipeline: pipeline}
}

// Create handles POST /api/transcribe. It validates the recording exists,
// creates a queued job and dispatches the pipeline in the background. The
// caller gets the job id immediately and polls for status.
func (h *TranscribeHandler) Create(c *fiber.Ctx) error {
	var req transcription.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_BAD_REQUEST",
		})
	}
	if req.RecordingID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "recording_id is required",
			"code":  "ERR_BAD_REQUEST",
		})
	}

	rec, err := h.store.GetRecording(req.RecordingID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if rec == nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "recording_id not found",
			"code":  "ERR_NOT_FOUND",
		})
	}

	jobID, err := h.mgr.Create(types.KindTranscribe, req)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	h.runner.Dispatch(jobID, func() {
		h.pipeline.Run(jobID, req)
	})

	return c.JSON(fiber.Map{
		"job_id": jobID,
		"status": types.StatusQueued,
	})
}
