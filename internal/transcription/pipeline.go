package transcription

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/audioscribe/audioscribe/internal/jobs"
	"github.com/audioscribe/audioscribe/internal/storage"
	"github.com/audioscribe/audioscribe/internal/types"
)

// Request is the payload of a transcribe job.
type Request struct {
	RecordingID string `json:"recording_id"`
	Options
}

// Pipeline executes one transcription job end to end. It holds only the
// job id and mutates job state exclusively through the manager, so a
// concurrent delete of the job never corrupts anything.
type Pipeline struct {
	store      *storage.DB
	layout     *storage.Layout
	mgr        *jobs.Manager
	estimator  jobs.Estimator
	defaults   Options
	loadEngine func(Options) (Engine, error)
	diarizer   Diarizer
	drive      *storage.DriveClient
}

// NewPipeline wires the pipeline. diarizer and drive may be nil; both are
// optional capabilities.
func NewPipeline(
	store *storage.DB,
	layout *storage.Layout,
	mgr *jobs.Manager,
	estimator jobs.Estimator,
	defaults Options,
	loadEngine func(Options) (Engine, error),
	diarizer Diarizer,
	drive *storage.DriveClient,
) *Pipeline {
	return &Pipeline{
		store:      store,
		layout:     layout,
		mgr:        mgr,
		estimator:  estimator,
		defaults:   defaults,
		loadEngine: loadEngine,
		diarizer:   diarizer,
		drive:      drive,
	}
}

// Run drives the job to a terminal state. It never returns an error and
// never panics outward; every failure is recorded on the job row.
func (p *Pipeline) Run(jobID string, req Request) {
	// Pre-flight: both checks fail the job from queued, before any model
	// loading happens.
	rec, err := p.store.GetRecording(req.RecordingID)
	if err != nil {
		p.fail(jobID, err.Error())
		return
	}
	if rec == nil {
		p.fail(jobID, "recording not found")
		return
	}
	if _, err := os.Stat(rec.OriginalPath); err != nil {
		p.fail(jobID, "input file missing")
		return
	}

	p.mgr.MarkRunning(jobID)

	opts := p.withDefaults(req.Options).Resolved()
	engine, err := p.loadEngine(opts)
	if err != nil {
		p.fail(jobID, err.Error())
		return
	}

	total := rec.DurationS
	if total <= 0 {
		if probed, err := ProbeDuration(rec.OriginalPath); err == nil {
			total = probed
		}
	}

	started := time.Now()
	decodingStage := "decoding"
	onSegment := func(seg types.Segment) {
		est := p.estimator.Estimate(seg.End, total, time.Since(started))
		var eta *float64
		if est.HasETA {
			eta = &est.ETASeconds
		}
		p.mgr.UpdateProgress(jobID, est.Progress, &decodingStage, eta)
	}

	ctx := context.Background()
	segments, meta, err := engine.Transcribe(ctx, rec.OriginalPath, opts, onSegment)
	if err != nil {
		p.fail(jobID, err.Error())
		return
	}

	// Best-effort speaker labels: any diarization failure degrades to an
	// unlabeled transcript instead of failing the job.
	var speakers map[int]string
	if opts.Diarize && p.diarizer != nil {
		raw, err := p.diarizer.Diarize(ctx, rec.OriginalPath)
		if err != nil {
			log.Printf("Job %s: diarization unavailable, continuing without speakers: %v", jobID, err)
		} else {
			speakers = AssignSpeakers(segments, NormalizeSpeakerLabels(raw))
		}
	}

	writingStage := "writing_output"
	zero := 0.0
	p.mgr.UpdateProgress(jobID, 0.99, &writingStage, &zero)

	text := FormatTranscript(segments, speakers)
	txtPath := p.layout.TranscriptTxtPath(rec.ID)
	if err := storage.WriteText(txtPath, text); err != nil {
		p.fail(jobID, err.Error())
		return
	}

	var srtText string
	var srtPath *string
	if opts.SRT {
		srtText = FormatSRT(segments, speakers)
		sp := p.layout.TranscriptSRTPath(rec.ID)
		if err := storage.WriteText(sp, srtText); err != nil {
			p.fail(jobID, err.Error())
			return
		}
		srtPath = &sp
	}

	sha, err := storage.Sha256File(rec.OriginalPath)
	if err != nil {
		p.fail(jobID, err.Error())
		return
	}

	duration := meta.Duration
	if duration <= 0 {
		duration = total
	}

	driveURL := p.uploadToDrive(jobID, rec.ID, text, srtText)

	tr := &storage.Transcript{
		ID:          storage.NewID("tr"),
		RecordingID: rec.ID,
		TextPath:    txtPath,
		SRTPath:     srtPath,
		GDriveURL:   driveURL,
		Model:       opts.Model,
		Device:      opts.Device,
		Compute:     opts.Compute,
		DurationS:   &duration,
	}
	if meta.Language != "" {
		tr.Language = &meta.Language
		tr.LanguageProbability = &meta.LanguageProbability
	}
	if err := p.store.CreateTranscript(tr); err != nil {
		p.fail(jobID, err.Error())
		return
	}

	if err := p.mgr.Complete(jobID, tr.ID); err != nil {
		log.Printf("Job %s: failed to record completion: %v", jobID, err)
		return
	}
	log.Printf("Job %s completed in %.1fs (%d segments, language=%s, sha256=%s)",
		jobID, time.Since(started).Seconds(), len(segments), meta.Language, sha[:12])
}

// uploadToDrive pushes artifacts to Google Drive with bounded retries.
// Failures are logged and swallowed; the job still completes.
func (p *Pipeline) uploadToDrive(jobID, recordingID, text, srt string) *string {
	if p.drive == nil {
		return nil
	}
	for attempt := 1; attempt <= 3; attempt++ {
		url, err := p.drive.UploadTranscript(recordingID, text, srt)
		if err == nil {
			return &url
		}
		log.Printf("Job %s: Drive upload attempt %d/3 failed: %v", jobID, attempt, err)
		if attempt < 3 {
			time.Sleep(time.Duration(attempt*attempt) * time.Second)
		}
	}
	log.Printf("Job %s: WARNING - Drive upload failed after 3 attempts, transcript saved locally only", jobID)
	return nil
}

func (p *Pipeline) fail(jobID, message string) {
	if err := p.mgr.Fail(jobID, message); err != nil {
		log.Printf("Job %s: failed to record error %q: %v", jobID, message, err)
		return
	}
	log.Printf("Job %s failed: %s", jobID, message)
}

// withDefaults fills request knobs left empty from the server config.
func (p *Pipeline) withDefaults(o Options) Options {
	if o.Model == "" {
		o.Model = p.defaults.Model
	}
	if o.Device == "" {
		o.Device = p.defaults.Device
	}
	if o.Compute == "" {
		o.Compute = p.defaults.Compute
	}
	if o.Language == "" {
		o.Language = p.defaults.Language
	}
	return o
}
