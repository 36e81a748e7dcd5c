package handlers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/audioscribe/audioscribe/internal/storage"
	"github.com/audioscribe/audioscribe/internal/transcription"
)

// RecordingsHandler ingests uploaded audio files.
type RecordingsHandler struct {
	store     *storage.DB
	layout    *storage.Layout
	tempDir   string
	maxSizeMB int
}

// NewRecordingsHandler creates the handler.
func NewRecordingsHandler(store *storage.DB, layout *storage.Layout, tempDir string, maxSizeMB int) *RecordingsHandler {
	return &RecordingsHandler{
		store:     store,
		layout:    layout,
		tempDir:   tempDir,
		maxSizeMB: maxSizeMB,
	}
}

// Create handles POST /api/recordings. The upload is streamed to a scratch
// file first and only moved into the recording's directory once probing
// succeeds, so the data root never holds partial writes.
func (h *RecordingsHandler) Create(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	recID := storage.NewID("rec")
	ext := transcription.NormalizeExt(file.Filename)

	tempPath := filepath.Join(h.tempDir, recID+ext)
	if err := c.SaveFile(file, tempPath); err != nil {
		log.Printf("Failed to save upload: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	// Duration is best-effort; a recording with unknown duration still
	// transcribes, it just gets the fallback progress heuristic.
	duration, err := transcription.ProbeDuration(tempPath)
	if err != nil {
		log.Printf("Recording %s: duration probe failed: %v", recID, err)
		duration = 0
	}

	dst := h.layout.OriginalPath(recID, ext)
	if err := h.layout.EnsureDir(recID); err != nil {
		os.Remove(tempPath)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to create recording directory",
			"code":  "ERR_SAVE_FAILED",
		})
	}
	if err := os.Rename(tempPath, dst); err != nil {
		os.Remove(tempPath)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to store recording",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	sha, err := storage.Sha256File(dst)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to hash recording",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	rec := &storage.Recording{
		ID:           recID,
		OriginalExt:  ext,
		OriginalPath: dst,
		DurationS:    duration,
		SHA256:       sha,
	}
	if err := h.store.CreateRecording(rec); err != nil {
		log.Printf("Failed to insert recording row: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to record upload",
			"code":  "ERR_DB_FAILED",
		})
	}

	// Provenance manifest next to the audio, best-effort.
	manifest := fiber.Map{
		"recording_id": recID,
		"original":     dst,
		"duration_s":   duration,
		"sha256":       sha,
		"created_at":   time.Now().UTC().Format(time.RFC3339),
	}
	if err := storage.WriteJSON(h.layout.ManifestPath(recID), manifest); err != nil {
		log.Printf("Recording %s: failed to write manifest: %v", recID, err)
	}

	return c.JSON(fiber.Map{
		"recording_id": recID,
		"original_ext": ext,
		"duration_s":   duration,
	})
}

// List handles GET /api/recordings.
func (h *RecordingsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	recs, err := h.store.ListRecordings(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if recs == nil {
		recs = []storage.Recording{}
	}
	return c.JSON(recs)
}
