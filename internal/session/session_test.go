package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yegors/vidscribe/internal/processing"
	"github.com/yegors/vidscribe/internal/settings"
	"github.com/yegors/vidscribe/internal/transcription"
	"github.com/yegors/vidscribe/internal/upload"
	"github.com/yegors/vidscribe/pkg/logger"
)

type fixedTranscriber struct {
	result *transcription.Result
	err    error
	got    settings.Settings
}

func (f *fixedTranscriber) Transcribe(ctx context.Context, data []byte, mimeType string, opts settings.Settings) (*transcription.Result, error) {
	f.got = opts
	return f.result, f.err
}

func twoSegments() *transcription.Result {
	return &transcription.Result{
		Segments: []transcription.Segment{
			{StartTime: "00:00", EndTime: "00:05", Speaker: "Speaker 1", Text: "Hello"},
			{StartTime: "7", EndTime: "9", Speaker: "Speaker 2", Text: "Hi"},
		},
		Summary:          "Greetings.",
		DetectedLanguage: "English",
	}
}

func newTestSession(t *testing.T, tr transcription.Transcriber) *Session {
	t.Helper()
	s, err := New(tr, upload.NewValidator(nil, 0), Options{Phases: processing.PhasesWithDelays(0, 0, 0)}, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func videoFile() *upload.File {
	return &upload.File{
		FileInfo: upload.FileInfo{Name: "clip.mp4", MIMEType: "video/mp4", Size: 5},
		Data:     []byte("video"),
	}
}

func runToCompletion(t *testing.T, s *Session) {
	t.Helper()
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Wait()
}

func TestRejectedFileChangesNothing(t *testing.T) {
	s := newTestSession(t, &fixedTranscriber{result: twoSegments()})
	if err := s.Select(videoFile()); err != nil {
		t.Fatalf("Select: %v", err)
	}

	bad := []*upload.File{
		{FileInfo: upload.FileInfo{Name: "song.mp3", MIMEType: "audio/mpeg", Size: 1}},
		{FileInfo: upload.FileInfo{Name: "huge.mp4", MIMEType: "video/mp4", Size: upload.MaxFileSize + 1}},
	}
	for _, f := range bad {
		if err := s.Select(f); err == nil {
			t.Fatalf("Select(%s) accepted", f.Name)
		}
		if got := s.SelectedFile(); got == nil || got.Name != "clip.mp4" {
			t.Fatalf("selection changed to %+v", got)
		}
		if s.Machine().Status() != processing.StatusIdle {
			t.Fatalf("status = %s, want idle", s.Machine().Status())
		}
	}
}

func TestStartWithoutFile(t *testing.T) {
	s := newTestSession(t, &fixedTranscriber{result: twoSegments()})
	if _, err := s.Start(); !errors.Is(err, ErrNoFile) {
		t.Fatalf("Start = %v, want %v", err, ErrNoFile)
	}
}

func TestSuccessfulRunRendersTranscript(t *testing.T) {
	tr := &fixedTranscriber{result: twoSegments()}
	s := newTestSession(t, tr)
	s.Settings().Toggle(settings.KeyRemoveFillers)

	if err := s.Select(videoFile()); err != nil {
		t.Fatalf("Select: %v", err)
	}
	runToCompletion(t, s)

	if tr.got.RemoveFillers {
		t.Error("transcriber did not receive current settings")
	}

	text, err := s.Transcript()
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	want := "[00:00] Speaker 1: Hello\n\n[7] Speaker 2: Hi"
	if text != want {
		t.Fatalf("transcript = %q, want %q", text, want)
	}

	view := s.View()
	if view.Result == nil || view.Processing.Status != processing.StatusSuccess {
		t.Fatalf("view = %+v", view)
	}
}

func TestSettingsChangeAfterArrivalNeedsRerender(t *testing.T) {
	s := newTestSession(t, &fixedTranscriber{result: twoSegments()})
	if err := s.Select(videoFile()); err != nil {
		t.Fatalf("Select: %v", err)
	}
	runToCompletion(t, s)

	s.Settings().Toggle(settings.KeyShowTimestamps)

	text, _ := s.Transcript()
	if !strings.HasPrefix(text, "[00:00]") {
		t.Fatalf("settings change altered rendered text: %q", text)
	}

	text, err := s.RenderTranscript()
	if err != nil {
		t.Fatalf("RenderTranscript: %v", err)
	}
	if text != "Speaker 1: Hello\n\nSpeaker 2: Hi" {
		t.Fatalf("re-rendered = %q", text)
	}
}

func TestEditsFlowToTextExportButNotSubtitles(t *testing.T) {
	s := newTestSession(t, &fixedTranscriber{result: twoSegments()})
	if err := s.Select(videoFile()); err != nil {
		t.Fatalf("Select: %v", err)
	}
	runToCompletion(t, s)

	if err := s.SetTranscript("edited by hand"); err != nil {
		t.Fatalf("SetTranscript: %v", err)
	}

	now := time.UnixMilli(1000)
	txt, err := s.ExportText(now)
	if err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	if txt.Content != "edited by hand" || txt.Filename != "transcription_1000.txt" {
		t.Fatalf("txt = %+v", txt)
	}

	srt, err := s.ExportSubtitles(now)
	if err != nil {
		t.Fatalf("ExportSubtitles: %v", err)
	}
	want := "1\n00:00 --> 00:05\nSpeaker 1: Hello\n\n2\n00:00:7,000 --> 00:00:9,000\nSpeaker 2: Hi\n"
	if srt.Content != want {
		t.Fatalf("srt = %q, want %q", srt.Content, want)
	}
	if srt.Filename != "subtitles_1000.srt" {
		t.Fatalf("srt filename = %q", srt.Filename)
	}
}

func TestFailedRunHasNoResult(t *testing.T) {
	s := newTestSession(t, &fixedTranscriber{err: transcription.ErrTranscriptionFailed})
	if err := s.Select(videoFile()); err != nil {
		t.Fatalf("Select: %v", err)
	}
	runToCompletion(t, s)

	if s.Machine().Status() != processing.StatusError {
		t.Fatalf("status = %s", s.Machine().Status())
	}
	if s.View().Result != nil {
		t.Fatal("result present after failure")
	}
	if _, err := s.Transcript(); !errors.Is(err, ErrNoResult) {
		t.Fatalf("Transcript = %v, want %v", err, ErrNoResult)
	}
	if _, err := s.ExportSubtitles(time.Now()); !errors.Is(err, ErrNoResult) {
		t.Fatalf("ExportSubtitles = %v, want %v", err, ErrNoResult)
	}

	// Try Again keeps the selected file
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.Machine().Status() != processing.StatusIdle {
		t.Fatalf("status = %s, want idle", s.Machine().Status())
	}
	if s.SelectedFile() == nil {
		t.Fatal("selection lost on reset")
	}
}

func TestNewSelectionClearsResult(t *testing.T) {
	s := newTestSession(t, &fixedTranscriber{result: twoSegments()})
	if err := s.Select(videoFile()); err != nil {
		t.Fatalf("Select: %v", err)
	}
	runToCompletion(t, s)

	if err := s.Select(videoFile()); err != nil {
		t.Fatalf("second Select: %v", err)
	}
	if s.Machine().Status() != processing.StatusIdle {
		t.Fatalf("status = %s, want idle", s.Machine().Status())
	}
	if s.View().Result != nil {
		t.Fatal("result survived new selection")
	}
}

func TestClearSelection(t *testing.T) {
	s := newTestSession(t, &fixedTranscriber{result: twoSegments()})
	if err := s.Select(videoFile()); err != nil {
		t.Fatalf("Select: %v", err)
	}
	s.ClearSelection()
	if s.SelectedFile() != nil {
		t.Fatal("selection not cleared")
	}
	if _, err := s.Start(); !errors.Is(err, ErrNoFile) {
		t.Fatalf("Start = %v, want %v", err, ErrNoFile)
	}
}

type blockingTranscriber struct {
	release chan struct{}
}

func (b *blockingTranscriber) Transcribe(ctx context.Context, data []byte, mimeType string, opts settings.Settings) (*transcription.Result, error) {
	<-b.release
	return twoSegments(), nil
}

func TestWaitTimeoutDoesNotHangOnStuckRun(t *testing.T) {
	tr := &blockingTranscriber{release: make(chan struct{})}
	s := newTestSession(t, tr)
	if err := s.Select(videoFile()); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if s.WaitTimeout(20 * time.Millisecond) {
		t.Fatal("WaitTimeout reported a finished run while the call is stuck")
	}

	close(tr.release)
	if !s.WaitTimeout(time.Second) {
		t.Fatal("WaitTimeout did not return after the call finished")
	}
}
