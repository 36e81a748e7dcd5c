package transcription

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ProbeDuration returns the audio duration in seconds using ffprobe.
// Requires ffmpeg/ffprobe on PATH.
func ProbeDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_entries", "format=duration",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v", err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %v", err)
	}
	dur, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %v", probe.Format.Duration, err)
	}
	return dur, nil
}

// supported upload extensions; anything else is stored as .mp3
var supportedExts = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".mp4": true,
	".aac": true, ".flac": true, ".ogg": true, ".webm": true,
}

// NormalizeExt lower-cases a filename's extension and falls back to .mp3
// for anything outside the allow-list.
func NormalizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExts[ext] {
		return ".mp3"
	}
	return ext
}
