package types

// Job status values. A job only ever moves forward:
// queued -> running -> done|error, or queued -> error on pre-flight failure.
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Job kind tags
const (
	KindTranscribe = "transcribe"
)

// Segment is a timestamped span of transcribed text.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SpeakerSegment is a timed span attributed to one speaker by the
// diarization engine. Spans may overlap each other and need not align
// with transcription segment boundaries.
type SpeakerSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// TranscriptionResult is the output of a completed pipeline run.
type TranscriptionResult struct {
	Text                string
	SRT                 string
	Language            string
	LanguageProbability float64
	DurationSec         float64
	ProcessingSec       float64
	SHA256              string
	Segments            []Segment
}

// IsTerminal reports whether a job status is final.
func IsTerminal(status string) bool {
	return status == StatusDone || status == StatusError
}
