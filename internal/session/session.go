package session

import (
	"errors"
	"sync"
	"time"

	"github.com/yegors/vidscribe/internal/export"
	"github.com/yegors/vidscribe/internal/processing"
	"github.com/yegors/vidscribe/internal/settings"
	"github.com/yegors/vidscribe/internal/transcription"
	"github.com/yegors/vidscribe/internal/upload"
	"github.com/yegors/vidscribe/pkg/logger"
)

var (
	// ErrNoFile is returned when processing is requested without a selected file
	ErrNoFile = errors.New("no file selected")
	// ErrBusy is returned when the selection changes while a run is in flight
	ErrBusy = errors.New("processing in progress")
	// ErrNoResult is returned when transcript or exports are requested before success
	ErrNoResult = errors.New("no transcription result")
)

// UsageStats mirrors the account statistics panel. It is never populated.
type UsageStats struct {
	TotalConversions int          `json:"totalConversions"`
	SuccessRate      float64      `json:"successRate"`
	TotalMinutes     float64      `json:"totalMinutes"`
	Errors           []UsageError `json:"errors"`
}

// UsageError is one entry of UsageStats.Errors
type UsageError struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// View is a read-only snapshot of the whole session
type View struct {
	Processing processing.Snapshot   `json:"processing"`
	Settings   settings.Settings     `json:"settings"`
	File       *upload.FileInfo      `json:"file,omitempty"`
	Result     *transcription.Result `json:"result,omitempty"`
}

// Session is the single owner of the per-process state: settings, the
// selected file, the processing machine and the editable transcript
type Session struct {
	mu         sync.RWMutex
	file       *upload.File
	transcript string
	textJobID  string

	settings  *settings.Store
	validator *upload.Validator
	machine   *processing.Machine
	logger    *logger.Logger
}

// Options configures a Session
type Options struct {
	Phases  []processing.Phase
	Clock   processing.Clock
	Events  *processing.EventBus
	Timeout time.Duration
}

// New creates a session with default settings and no selected file
func New(transcriber transcription.Transcriber, validator *upload.Validator, opts Options, logger *logger.Logger) (*Session, error) {
	s := &Session{
		settings:  settings.NewStore(),
		validator: validator,
		logger:    logger.Named("session"),
	}

	machine, err := processing.NewMachine(transcriber, processing.Options{
		Phases:   opts.Phases,
		Clock:    opts.Clock,
		Events:   opts.Events,
		Timeout:  opts.Timeout,
		OnResult: s.renderOnArrival,
	}, logger)
	if err != nil {
		return nil, err
	}
	s.machine = machine

	return s, nil
}

// Settings returns the settings store
func (s *Session) Settings() *settings.Store {
	return s.settings
}

// Machine returns the processing machine
func (s *Session) Machine() *processing.Machine {
	return s.machine
}

// Validator returns the file validator
func (s *Session) Validator() *upload.Validator {
	return s.validator
}

// Select validates a file and makes it the single selected file.
// On rejection nothing changes.
func (s *Session) Select(file *upload.File) error {
	if err := s.validator.Validate(file.FileInfo); err != nil {
		s.logger.Info("File rejected",
			logger.String("name", file.Name),
			logger.String("mime_type", file.MIMEType),
			logger.Int64("size", file.Size),
			logger.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A new selection drops the previous result
	if err := s.machine.Reset(); err != nil {
		return ErrBusy
	}
	s.file = file
	s.transcript = ""
	s.textJobID = ""

	s.logger.Info("File selected",
		logger.String("name", file.Name),
		logger.String("mime_type", file.MIMEType),
		logger.Int64("size", file.Size))
	return nil
}

// ClearSelection drops the selected file; processing status is unaffected
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = nil
}

// SelectedFile returns metadata of the selected file, if any
func (s *Session) SelectedFile() *upload.FileInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.file == nil {
		return nil
	}
	info := s.file.FileInfo
	return &info
}

// Start begins processing the selected file with the current settings
func (s *Session) Start() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file := s.file
	if file == nil {
		return "", ErrNoFile
	}

	return s.machine.Start(processing.Input{
		Data:     file.Data,
		MIMEType: file.MIMEType,
		Settings: s.settings.Get(),
	})
}

// Reset is the "Try Again" action; the selected file is kept
func (s *Session) Reset() error {
	return s.machine.Reset()
}

// View returns a snapshot of the session
func (s *Session) View() View {
	return View{
		Processing: s.machine.Snapshot(),
		Settings:   s.settings.Get(),
		File:       s.SelectedFile(),
		Result:     s.machine.Result(),
	}
}

// renderOnArrival renders the editable text with the settings current when the result arrives
func (s *Session) renderOnArrival(jobID string, result *transcription.Result) {
	text := export.FormatText(result, s.settings.Get())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = text
	s.textJobID = jobID
}

// currentResult returns the result only when the editable text belongs to it
func (s *Session) currentResult() (*transcription.Result, string, error) {
	result := s.machine.Result()
	if result == nil {
		return nil, "", ErrNoResult
	}
	jobID := s.machine.Snapshot().JobID
	return result, jobID, nil
}

// Transcript returns the editable transcript
func (s *Session) Transcript() (string, error) {
	_, jobID, err := s.currentResult()
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.textJobID != jobID {
		return "", ErrNoResult
	}
	return s.transcript, nil
}

// SetTranscript replaces the editable transcript with user edits
func (s *Session) SetTranscript(text string) error {
	_, jobID, err := s.currentResult()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = text
	s.textJobID = jobID
	return nil
}

// RenderTranscript discards edits and re-renders from the result with the current settings
func (s *Session) RenderTranscript() (string, error) {
	result, jobID, err := s.currentResult()
	if err != nil {
		return "", err
	}

	text := export.FormatText(result, s.settings.Get())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = text
	s.textJobID = jobID
	return text, nil
}

// ExportText returns the editable transcript as a .txt download
func (s *Session) ExportText(now time.Time) (export.Artifact, error) {
	text, err := s.Transcript()
	if err != nil {
		return export.Artifact{}, err
	}
	return export.TextArtifact(text, now), nil
}

// ExportSubtitles renders the unedited segments as a .srt download
func (s *Session) ExportSubtitles(now time.Time) (export.Artifact, error) {
	result, _, err := s.currentResult()
	if err != nil {
		return export.Artifact{}, err
	}
	return export.SubtitleArtifact(result, now), nil
}

// Wait blocks until any in-flight run has finished
func (s *Session) Wait() {
	s.machine.Wait()
}

// WaitTimeout waits at most d for an in-flight run and reports whether it finished
func (s *Session) WaitTimeout(d time.Duration) bool {
	return s.machine.WaitTimeout(d)
}
