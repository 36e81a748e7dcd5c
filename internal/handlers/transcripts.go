package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/audioscribe/audioscribe/internal/storage"
)

// TranscriptsHandler serves finished transcripts.
type TranscriptsHandler struct {
	store *storage.DB
}

// NewTranscriptsHandler creates the handler.
func NewTranscriptsHandler(store *storage.DB) *TranscriptsHandler {
	return &TranscriptsHandler{store: store}
}

// Get handles GET /api/transcripts/:id. Text content is included unless
// include_text=false.
func (h *TranscriptsHandler) Get(c *fiber.Ctx) error {
	tr, err := h.store.GetTranscript(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if tr == nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "transcript not found",
			"code":  "ERR_NOT_FOUND",
		})
	}

	resp := fiber.Map{
		"transcript_id":        tr.ID,
		"recording_id":         tr.RecordingID,
		"text_path":            tr.TextPath,
		"srt_path":             tr.SRTPath,
		"gdrive_url":           tr.GDriveURL,
		"language":             tr.Language,
		"language_probability": tr.LanguageProbability,
		"model":                tr.Model,
		"device":               tr.Device,
		"compute":              tr.Compute,
		"duration_s":           tr.DurationS,
		"created_at":           tr.CreatedAt,
	}
	if c.QueryBool("include_text", true) {
		if content, err := os.ReadFile(tr.TextPath); err == nil {
			resp["text"] = string(content)
		}
	}
	return c.JSON(resp)
}

// GetText handles GET /api/transcripts/:id/text, returning the raw file.
func (h *TranscriptsHandler) GetText(c *fiber.Ctx) error {
	tr, err := h.store.GetTranscript(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if tr == nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "transcript not found",
			"code":  "ERR_NOT_FOUND",
		})
	}
	content, err := os.ReadFile(tr.TextPath)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to read transcript file"})
	}
	return c.SendString(string(content))
}

// Delete handles DELETE /api/transcripts/:id.
func (h *TranscriptsHandler) Delete(c *fiber.Ctx) error {
	deleted, err := h.store.DeleteTranscript(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if !deleted {
		return c.Status(404).JSON(fiber.Map{
			"error": "transcript not found",
			"code":  "ERR_NOT_FOUND",
		})
	}
	return c.JSON(fiber.Map{"deleted": true})
}
