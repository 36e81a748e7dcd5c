package transcription

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/audioscribe/audioscribe/internal/types"
)

//go:embed assets/diarize.py
var diarizeScript []byte

// Diarizer infers which speaker is talking during which time span.
// Diarization is strictly best-effort: callers treat any error as "no
// speaker labels" and never fail the job over it.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]types.SpeakerSegment, error)
}

// PyannoteDiarizer runs pyannote.audio through a Python helper process.
type PyannoteDiarizer struct {
	python     string
	scriptPath string
}

// NewPyannoteDiarizer writes the helper script and returns the diarizer.
func NewPyannoteDiarizer(python string) (*PyannoteDiarizer, error) {
	if python == "" {
		python = "python3"
	}
	scriptPath := filepath.Join(os.TempDir(), "audioscribe_diarize.py")
	if err := os.WriteFile(scriptPath, diarizeScript, 0755); err != nil {
		return nil, fmt.Errorf("failed to write diarize helper: %v", err)
	}
	return &PyannoteDiarizer{python: python, scriptPath: scriptPath}, nil
}

// Diarize returns raw speaker segments for the audio file.
func (d *PyannoteDiarizer) Diarize(ctx context.Context, audioPath string) ([]types.SpeakerSegment, error) {
	cmd := exec.CommandContext(ctx, d.python, d.scriptPath, "--audio", audioPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("diarization failed: %s", detail)
	}

	var speakers []types.SpeakerSegment
	if err := json.Unmarshal(out, &speakers); err != nil {
		return nil, fmt.Errorf("failed to parse diarization output: %v", err)
	}
	return speakers, nil
}
