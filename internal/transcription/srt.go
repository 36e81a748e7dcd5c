package transcription

import (
	"fmt"
	"math"
	"strings"

	"github.com/audioscribe/audioscribe/internal/types"
)

// FormatTranscript renders the plain-text transcript, one segment per
// line, prefixed with the speaker label when one was assigned.
func FormatTranscript(segments []types.Segment, speakers map[int]string) string {
	lines := make([]string, 0, len(segments))
	for i, seg := range segments {
		lines = append(lines, speakerPrefixed(seg.Text, speakers, i))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// FormatSRT renders the segments as SubRip subtitles: sequential integer
// cue numbers, "HH:MM:SS,mmm --> HH:MM:SS,mmm" ranges and cue text,
// separated by blank lines. Field widths are fixed for compatibility with
// common subtitle consumers.
func FormatSRT(segments []types.Segment, speakers map[int]string) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", srtTimestamp(seg.Start), srtTimestamp(seg.End))
		b.WriteString(speakerPrefixed(seg.Text, speakers, i))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func speakerPrefixed(text string, speakers map[int]string, idx int) string {
	text = strings.TrimSpace(text)
	if speakers != nil {
		if name, ok := speakers[idx]; ok {
			return name + ": " + text
		}
	}
	return text
}

func srtTimestamp(ts float64) string {
	if ts < 0 {
		ts = 0
	}
	// Work in whole milliseconds so 3661.042 renders as 042, not 041.
	total := int64(math.Round(ts * 1000))
	h := total / 3600000
	m := (total % 3600000) / 60000
	s := (total % 60000) / 1000
	ms := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
