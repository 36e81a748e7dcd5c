package transcription

import (
	"fmt"

	"github.com/audioscribe/audioscribe/internal/types"
)

// AssignSpeakers maps each transcription segment index to the speaker
// whose segment overlaps it the most. Ties go to the first-evaluated
// speaker segment. Segments with zero overlap get no entry. O(N*M) is
// fine at the expected scale of low hundreds of segments.
func AssignSpeakers(segments []types.Segment, speakers []types.SpeakerSegment) map[int]string {
	assigned := make(map[int]string)
	for i, seg := range segments {
		best := 0.0
		var bestSpeaker string
		for _, sp := range speakers {
			overlap := overlapSeconds(seg.Start, seg.End, sp.Start, sp.End)
			if overlap > best {
				best = overlap
				bestSpeaker = sp.Speaker
			}
		}
		if best > 0 {
			assigned[i] = bestSpeaker
		}
	}
	return assigned
}

func overlapSeconds(s0, s1, b0, b1 float64) float64 {
	lo := s0
	if b0 > lo {
		lo = b0
	}
	hi := s1
	if b1 < hi {
		hi = b1
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// NormalizeSpeakerLabels rewrites raw diarization labels (e.g.
// "SPEAKER_00") to "Speaker 1", "Speaker 2", ... in first-seen order.
func NormalizeSpeakerLabels(speakers []types.SpeakerSegment) []types.SpeakerSegment {
	names := make(map[string]string)
	out := make([]types.SpeakerSegment, len(speakers))
	for i, sp := range speakers {
		name, ok := names[sp.Speaker]
		if !ok {
			name = fmt.Sprintf("Speaker %d", len(names)+1)
			names[sp.Speaker] = name
		}
		out[i] = types.SpeakerSegment{Start: sp.Start, End: sp.End, Speaker: name}
	}
	return out
}
