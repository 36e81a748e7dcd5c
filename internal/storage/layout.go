package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Layout maps recording ids to their on-disk artifact paths. Every
// recording owns one directory under the data root:
//
//	data/<rec_id>/original.<ext>
//	data/<rec_id>/manifest.json
//	data/<rec_id>/transcript.txt
//	data/<rec_id>/transcript.srt
type Layout struct {
	root string
}

// NewLayout creates a layout rooted at dataDir.
func NewLayout(dataDir string) *Layout {
	return &Layout{root: dataDir}
}

// RecordingDir returns the directory owned by a recording.
func (l *Layout) RecordingDir(recordingID string) string {
	return filepath.Join(l.root, recordingID)
}

// OriginalPath returns the stored upload path, keeping the user's extension.
func (l *Layout) OriginalPath(recordingID, ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(l.RecordingDir(recordingID), "original"+ext)
}

// TranscriptTxtPath returns the plain-text transcript path.
func (l *Layout) TranscriptTxtPath(recordingID string) string {
	return filepath.Join(l.RecordingDir(recordingID), "transcript.txt")
}

// TranscriptSRTPath returns the subtitle file path.
func (l *Layout) TranscriptSRTPath(recordingID string) string {
	return filepath.Join(l.RecordingDir(recordingID), "transcript.srt")
}

// ManifestPath returns the provenance manifest path.
func (l *Layout) ManifestPath(recordingID string) string {
	return filepath.Join(l.RecordingDir(recordingID), "manifest.json")
}

// EnsureDir creates the recording directory if needed.
func (l *Layout) EnsureDir(recordingID string) error {
	return os.MkdirAll(l.RecordingDir(recordingID), 0755)
}

// WriteText writes a text artifact, creating parent directories.
func WriteText(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}

// WriteJSON writes obj as indented JSON.
func WriteJSON(path string, obj interface{}) error {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal json: %v", err)
	}
	return WriteText(path, string(data))
}

// Sha256File streams the file through sha256 and returns the hex digest.
func Sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %v", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NewID returns a prefixed opaque id, e.g. "job_3f2a...".
func NewID(prefix string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
