package transcription

import "strings"

// Options is the per-job configuration snapshot for the speech-to-text
// engine. All knobs are optional on the wire; Resolved fills defaults.
// Pointer fields distinguish "not provided" from an explicit zero value.
type Options struct {
	Model    string `json:"model,omitempty"`
	Device   string `json:"device,omitempty"`
	Compute  string `json:"compute,omitempty"`
	Language string `json:"language,omitempty"`
	SRT      bool   `json:"srt,omitempty"`

	BeamSize                *int     `json:"beam_size,omitempty"`
	BestOf                  *int     `json:"best_of,omitempty"`
	Temperature             *float64 `json:"temperature,omitempty"`
	Prompt                  string   `json:"prompt,omitempty"`
	ConditionOnPreviousText *bool    `json:"condition_on_previous_text,omitempty"`
	WordTimestamps          *bool    `json:"word_timestamps,omitempty"`

	Diarize bool `json:"diarize,omitempty"`
}

// Resolved returns a copy with defaults applied: model "small", device
// "cpu", and compute "float16" on cuda or "int8" otherwise. The triple is
// lower-cased so it can serve as a cache key.
func (o Options) Resolved() Options {
	r := o
	r.Model = strings.ToLower(o.Model)
	if r.Model == "" {
		r.Model = "small"
	}
	r.Device = strings.ToLower(o.Device)
	if r.Device == "" {
		r.Device = "cpu"
	}
	r.Compute = strings.ToLower(o.Compute)
	if r.Compute == "" {
		if r.Device == "cuda" {
			r.Compute = "float16"
		} else {
			r.Compute = "int8"
		}
	}
	return r
}
