package transcription

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/audioscribe/audioscribe/internal/jobs"
	"github.com/audioscribe/audioscribe/internal/storage"
	"github.com/audioscribe/audioscribe/internal/types"
)

type fakeEngine struct {
	segments []types.Segment
	meta     Metadata
	err      error
	// onTranscribe runs mid-call, before segments are emitted; used to
	// simulate races with the job store.
	onTranscribe func()
}

func (f *fakeEngine) Transcribe(ctx context.Context, audioPath string, opts Options, onSegment SegmentFunc) ([]types.Segment, Metadata, error) {
	if f.onTranscribe != nil {
		f.onTranscribe()
	}
	if f.err != nil {
		return nil, Metadata{}, f.err
	}
	for _, seg := range f.segments {
		if onSegment != nil {
			onSegment(seg)
		}
	}
	return f.segments, f.meta, nil
}

type fakeDiarizer struct {
	speakers []types.SpeakerSegment
	err      error
}

func (f *fakeDiarizer) Diarize(ctx context.Context, audioPath string) ([]types.SpeakerSegment, error) {
	return f.speakers, f.err
}

type pipelineFixture struct {
	db     *storage.DB
	layout *storage.Layout
	mgr    *jobs.Manager
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &pipelineFixture{
		db:     db,
		layout: storage.NewLayout(filepath.Join(dir, "data")),
		mgr:    jobs.NewManager(db),
	}
}

func (f *pipelineFixture) newPipeline(t *testing.T, engine Engine, diarizer Diarizer) *Pipeline {
	t.Helper()
	return NewPipeline(f.db, f.layout, f.mgr, jobs.NewEstimator(), Options{},
		func(Options) (Engine, error) { return engine, nil }, diarizer, nil)
}

// addRecording inserts a recording row with a real file on disk. A
// positive duration avoids the ffprobe dependency in tests.
func (f *pipelineFixture) addRecording(t *testing.T, id string) *storage.Recording {
	t.Helper()
	path := f.layout.OriginalPath(id, ".wav")
	if err := f.layout.EnsureDir(id); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("fake audio bytes"), 0644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	rec := &storage.Recording{
		ID:           id,
		OriginalExt:  ".wav",
		OriginalPath: path,
		DurationS:    100,
		SHA256:       "deadbeef",
	}
	if err := f.db.CreateRecording(rec); err != nil {
		t.Fatalf("create recording: %v", err)
	}
	return rec
}

func (f *pipelineFixture) createJob(t *testing.T, req Request) string {
	t.Helper()
	id, err := f.mgr.Create(types.KindTranscribe, req)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return id
}

// TestRunSuccess covers the full happy path with subtitles.
func TestRunSuccess(t *testing.T) {
	f := newFixture(t)
	f.addRecording(t, "rec_1")

	engine := &fakeEngine{
		segments: []types.Segment{
			{Start: 0, End: 4, Text: "Hello."},
			{Start: 4, End: 9, Text: "World."},
		},
		meta: Metadata{Language: "en", LanguageProbability: 0.98, Duration: 100},
	}
	p := f.newPipeline(t, engine, nil)

	req := Request{RecordingID: "rec_1", Options: Options{SRT: true}}
	jobID := f.createJob(t, req)
	p.Run(jobID, req)

	job, err := f.mgr.Get(jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != types.StatusDone {
		t.Fatalf("status = %s (error=%v), want done", job.Status, job.Error)
	}
	if job.Progress != 1.0 {
		t.Fatalf("progress = %v, want 1.0", job.Progress)
	}
	if job.ResultRef == nil {
		t.Fatal("result_ref must be set on done")
	}
	if job.Error != nil {
		t.Fatalf("error = %v, want nil", job.Error)
	}

	tr, err := f.db.GetTranscript(*job.ResultRef)
	if err != nil || tr == nil {
		t.Fatalf("transcript row missing: %v", err)
	}
	if tr.Language == nil || *tr.Language != "en" {
		t.Fatalf("language = %v, want en", tr.Language)
	}

	text, err := os.ReadFile(tr.TextPath)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if string(text) != "Hello.\nWorld." {
		t.Fatalf("transcript = %q", text)
	}

	if tr.SRTPath == nil {
		t.Fatal("srt_path missing with srt requested")
	}
	srt, err := os.ReadFile(*tr.SRTPath)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.HasPrefix(string(srt), "1\n00:00:00,000 --> 00:00:04,000\nHello.") {
		t.Fatalf("srt = %q", srt)
	}
}

// TestRunUnknownRecording is the pre-flight path: the job errors without
// ever reaching running.
func TestRunUnknownRecording(t *testing.T) {
	f := newFixture(t)
	p := f.newPipeline(t, &fakeEngine{}, nil)

	req := Request{RecordingID: "rec_nope"}
	jobID := f.createJob(t, req)
	p.Run(jobID, req)

	job, _ := f.mgr.Get(jobID)
	if job.Status != types.StatusError {
		t.Fatalf("status = %s, want error", job.Status)
	}
	if job.Error == nil || *job.Error != "recording not found" {
		t.Fatalf("error = %v, want recording not found", job.Error)
	}
	if job.StartedAt != nil {
		t.Fatal("pre-flight failure must not reach running")
	}
	if job.ResultRef != nil {
		t.Fatal("failed job must not carry a result_ref")
	}
}

// TestRunMissingInputFile distinguishes the second pre-flight error.
func TestRunMissingInputFile(t *testing.T) {
	f := newFixture(t)
	rec := f.addRecording(t, "rec_1")
	os.Remove(rec.OriginalPath)

	p := f.newPipeline(t, &fakeEngine{}, nil)
	req := Request{RecordingID: "rec_1"}
	jobID := f.createJob(t, req)
	p.Run(jobID, req)

	job, _ := f.mgr.Get(jobID)
	if job.Error == nil || *job.Error != "input file missing" {
		t.Fatalf("error = %v, want input file missing", job.Error)
	}
	if job.StartedAt != nil {
		t.Fatal("pre-flight failure must not reach running")
	}
}

// TestRunEngineFailure maps execution errors onto the job row.
func TestRunEngineFailure(t *testing.T) {
	f := newFixture(t)
	f.addRecording(t, "rec_1")

	p := f.newPipeline(t, &fakeEngine{err: errors.New("transcription failed: boom")}, nil)
	req := Request{RecordingID: "rec_1"}
	jobID := f.createJob(t, req)
	p.Run(jobID, req)

	job, _ := f.mgr.Get(jobID)
	if job.Status != types.StatusError {
		t.Fatalf("status = %s, want error", job.Status)
	}
	if job.Error == nil || !strings.Contains(*job.Error, "boom") {
		t.Fatalf("error = %v, want engine message", job.Error)
	}
}

// TestRunDiarizationDegrades verifies a failing diarizer never fails the
// job; the transcript just loses its speaker labels.
func TestRunDiarizationDegrades(t *testing.T) {
	f := newFixture(t)
	f.addRecording(t, "rec_1")

	engine := &fakeEngine{
		segments: []types.Segment{{Start: 0, End: 5, Text: "Solo."}},
		meta:     Metadata{Language: "en", Duration: 100},
	}
	p := f.newPipeline(t, engine, &fakeDiarizer{err: errors.New("model fetch failed")})

	req := Request{RecordingID: "rec_1", Options: Options{Diarize: true}}
	jobID := f.createJob(t, req)
	p.Run(jobID, req)

	job, _ := f.mgr.Get(jobID)
	if job.Status != types.StatusDone {
		t.Fatalf("status = %s (error=%v), want done despite diarizer failure", job.Status, job.Error)
	}

	text, _ := os.ReadFile(f.layout.TranscriptTxtPath("rec_1"))
	if string(text) != "Solo." {
		t.Fatalf("transcript = %q, want unlabeled text", text)
	}
}

// TestRunWithSpeakers covers the merge of diarization output.
func TestRunWithSpeakers(t *testing.T) {
	f := newFixture(t)
	f.addRecording(t, "rec_1")

	engine := &fakeEngine{
		segments: []types.Segment{
			{Start: 0, End: 4, Text: "Hi."},
			{Start: 4, End: 9, Text: "Hey."},
		},
		meta: Metadata{Language: "en", Duration: 100},
	}
	diarizer := &fakeDiarizer{
		speakers: []types.SpeakerSegment{
			{Start: 0, End: 4.5, Speaker: "SPEAKER_01"},
			{Start: 4.5, End: 9, Speaker: "SPEAKER_00"},
		},
	}
	p := f.newPipeline(t, engine, diarizer)

	req := Request{RecordingID: "rec_1", Options: Options{Diarize: true}}
	jobID := f.createJob(t, req)
	p.Run(jobID, req)

	job, _ := f.mgr.Get(jobID)
	if job.Status != types.StatusDone {
		t.Fatalf("status = %s (error=%v), want done", job.Status, job.Error)
	}
	text, _ := os.ReadFile(f.layout.TranscriptTxtPath("rec_1"))
	if string(text) != "Speaker 1: Hi.\nSpeaker 2: Hey." {
		t.Fatalf("transcript = %q", text)
	}
}

// TestRunDeletedMidFlight simulates a delete racing the running
// pipeline: callbacks and the final transition must not resurrect the row.
func TestRunDeletedMidFlight(t *testing.T) {
	f := newFixture(t)
	f.addRecording(t, "rec_1")

	engine := &fakeEngine{
		segments: []types.Segment{{Start: 0, End: 5, Text: "Gone."}},
		meta:     Metadata{Language: "en", Duration: 100},
	}
	req := Request{RecordingID: "rec_1"}
	jobID := f.createJob(t, req)

	engine.onTranscribe = func() {
		if deleted, err := f.mgr.Delete(jobID); err != nil || !deleted {
			t.Fatalf("mid-flight delete = %v, %v", deleted, err)
		}
	}
	p := f.newPipeline(t, engine, nil)
	p.Run(jobID, req)

	if _, err := f.mgr.Get(jobID); err != jobs.ErrNotFound {
		t.Fatalf("get after delete = %v, want ErrNotFound", err)
	}
}
