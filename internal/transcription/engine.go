package transcription

import (
	"context"
	"sync"

	"github.com/audioscribe/audioscribe/internal/types"
)

// Metadata is the engine's summary for one input.
type Metadata struct {
	Language            string
	LanguageProbability float64
	Duration            float64
}

// SegmentFunc is invoked for every segment as it is decoded, before the
// full transcription finishes.
type SegmentFunc func(types.Segment)

// Engine produces an ordered stream of transcription segments for an
// audio file. Implementations must be safe for concurrent use; multiple
// jobs may share one instance.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string, opts Options, onSegment SegmentFunc) ([]types.Segment, Metadata, error)
}

// EngineKey identifies a loaded engine configuration.
type EngineKey struct {
	Model   string
	Device  string
	Compute string
}

// Engines are expensive to load, so instances are cached process-wide by
// their resolved (model, device, compute) triple and never evicted. Only
// a handful of distinct configurations exist in practice.
var (
	engineMu    sync.Mutex
	engineCache = map[EngineKey]Engine{}
)

// LoadEngine returns the cached engine for the options' configuration
// triple, creating it on first use.
func LoadEngine(python string) func(Options) (Engine, error) {
	return func(opts Options) (Engine, error) {
		o := opts.Resolved()
		key := EngineKey{Model: o.Model, Device: o.Device, Compute: o.Compute}

		engineMu.Lock()
		defer engineMu.Unlock()
		if eng, ok := engineCache[key]; ok {
			return eng, nil
		}
		eng, err := NewFasterWhisperEngine(python, key)
		if err != nil {
			return nil, err
		}
		engineCache[key] = eng
		return eng, nil
	}
}
