package transcription

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/audioscribe/audioscribe/internal/types"
)

//go:embed assets/faster_whisper.py
var fwScript []byte

// FasterWhisperEngine drives faster-whisper through a Python helper
// process. The helper emits one JSON line per decoded segment followed by
// a final info line, so segments can be consumed (and progress reported)
// while decoding is still in flight.
type FasterWhisperEngine struct {
	python     string
	scriptPath string
	key        EngineKey
}

// NewFasterWhisperEngine writes the helper script to a stable temp path.
// Model weights load lazily inside the helper on first transcription.
func NewFasterWhisperEngine(python string, key EngineKey) (*FasterWhisperEngine, error) {
	if python == "" {
		python = "python3"
	}
	scriptPath := filepath.Join(os.TempDir(), "audioscribe_faster_whisper.py")
	if err := os.WriteFile(scriptPath, fwScript, 0755); err != nil {
		return nil, fmt.Errorf("failed to write helper script: %v", err)
	}
	return &FasterWhisperEngine{python: python, scriptPath: scriptPath, key: key}, nil
}

// helper wire format
type fwLine struct {
	Type                string  `json:"type"`
	Start               float64 `json:"start"`
	End                 float64 `json:"end"`
	Text                string  `json:"text"`
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	Duration            float64 `json:"duration"`
}

// Transcribe runs the helper and streams its segment lines through
// onSegment as they arrive.
func (e *FasterWhisperEngine) Transcribe(ctx context.Context, audioPath string, opts Options, onSegment SegmentFunc) ([]types.Segment, Metadata, error) {
	o := opts.Resolved()

	args := []string{
		e.scriptPath,
		"--audio", audioPath,
		"--model", e.key.Model,
		"--device", e.key.Device,
		"--compute", e.key.Compute,
	}
	if o.Language != "" {
		args = append(args, "--language", o.Language)
	}
	if o.BeamSize != nil {
		args = append(args, "--beam-size", strconv.Itoa(*o.BeamSize))
	}
	if o.BestOf != nil {
		args = append(args, "--best-of", strconv.Itoa(*o.BestOf))
	}
	if o.Temperature != nil {
		args = append(args, "--temperature", strconv.FormatFloat(*o.Temperature, 'f', -1, 64))
	}
	if o.Prompt != "" {
		args = append(args, "--prompt", o.Prompt)
	}
	if o.ConditionOnPreviousText != nil {
		args = append(args, "--condition-on-previous-text", strconv.FormatBool(*o.ConditionOnPreviousText))
	}
	if o.WordTimestamps != nil && *o.WordTimestamps {
		args = append(args, "--word-timestamps")
	}

	cmd := exec.CommandContext(ctx, e.python, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("failed to open helper stdout: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, Metadata{}, fmt.Errorf("failed to start transcription helper: %v", err)
	}

	var (
		segments []types.Segment
		meta     Metadata
	)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var msg fwLine
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "segment":
			seg := types.Segment{
				Start: msg.Start,
				End:   msg.End,
				Text:  strings.TrimSpace(msg.Text),
			}
			segments = append(segments, seg)
			if onSegment != nil {
				onSegment(seg)
			}
		case "info":
			meta = Metadata{
				Language:            msg.Language,
				LanguageProbability: msg.LanguageProbability,
				Duration:            msg.Duration,
			}
		}
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, Metadata{}, fmt.Errorf("transcription failed: %s", detail)
	}
	if scanErr != nil {
		return nil, Metadata{}, fmt.Errorf("failed to read helper output: %v", scanErr)
	}
	return segments, meta, nil
}
