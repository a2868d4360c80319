package processing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yegors/vidscribe/internal/transcription"
	"github.com/yegors/vidscribe/pkg/logger"
)

var (
	// ErrAlreadyRunning is returned when Start is called while a run is in flight
	ErrAlreadyRunning = errors.New("processing already running")
	// ErrRunning is returned when Reset is called while a run is in flight
	ErrRunning = errors.New("cannot reset while processing")
)

// ResultHook is called with a fresh result after the finalizing delay,
// before the success status becomes visible
type ResultHook func(jobID string, result *transcription.Result)

// Options configures a Machine
type Options struct {
	Phases   []Phase
	Clock    Clock
	Events   *EventBus
	Timeout  time.Duration // Zero means the call runs to completion
	OnResult ResultHook
}

// Machine drives the visible phase sequence around one transcription call.
// Only one run may be in flight at a time.
type Machine struct {
	mu       sync.RWMutex
	status   Status
	label    string
	progress int
	jobID    string
	failure  string
	result   *transcription.Result

	transcriber transcription.Transcriber
	phases      []Phase
	clock       Clock
	events      *EventBus
	timeout     time.Duration
	onResult    ResultHook
	wg          sync.WaitGroup
	logger      *logger.Logger
}

// NewMachine creates a machine in idle state
func NewMachine(transcriber transcription.Transcriber, opts Options, logger *logger.Logger) (*Machine, error) {
	phases := opts.Phases
	if phases == nil {
		phases = DefaultPhases()
	}
	if err := validatePhases(phases); err != nil {
		return nil, fmt.Errorf("invalid phase sequence: %w", err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	events := opts.Events
	if events == nil {
		events = NewEventBus(0)
	}

	return &Machine{
		status:      StatusIdle,
		transcriber: transcriber,
		phases:      append([]Phase(nil), phases...),
		clock:       clock,
		events:      events,
		timeout:     opts.Timeout,
		onResult:    opts.OnResult,
		logger:      logger.Named("processing"),
	}, nil
}

// Events returns the bus status changes are published on
func (m *Machine) Events() *EventBus {
	return m.events
}

// Start begins a run from idle, success or error and returns its job ID.
// While a run is in flight it returns ErrAlreadyRunning and changes nothing.
func (m *Machine) Start(in Input) (string, error) {
	m.mu.Lock()
	if m.status.IsRunning() {
		m.mu.Unlock()
		return "", ErrAlreadyRunning
	}

	jobID := uuid.NewString()
	m.jobID = jobID
	m.failure = ""
	m.result = nil
	first := m.phases[0]
	m.enter(first)
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Info("Processing started",
		logger.String("job_id", jobID),
		logger.String("mime_type", in.MIMEType),
		logger.Int("bytes", len(in.Data)))

	// Detached from the caller: resetting or disconnecting never aborts the call
	go func() {
		defer m.wg.Done()
		m.run(jobID, in)
	}()

	return jobID, nil
}

// Reset returns success or error to idle. It is a no-op from idle.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case StatusIdle:
		return nil
	case StatusSuccess, StatusError:
	default:
		return ErrRunning
	}

	m.status = StatusIdle
	m.label = ""
	m.progress = 0
	m.failure = ""
	m.result = nil
	m.publish(Event{Type: EventTypeStatus})
	return nil
}

// Snapshot returns the current state
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		JobID:    m.jobID,
		Status:   m.status,
		Label:    m.label,
		Progress: m.progress,
		Running:  m.status.IsRunning(),
		Error:    m.failure,
	}
}

// Status returns the active status
func (m *Machine) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsRunning reports whether a run is in flight
func (m *Machine) IsRunning() bool {
	return m.Status().IsRunning()
}

// Result returns the transcript of the last run; nil unless status is success
func (m *Machine) Result() *transcription.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.status != StatusSuccess {
		return nil
	}
	return m.result
}

// Wait blocks until any in-flight run has finished
func (m *Machine) Wait() {
	m.wg.Wait()
}

// WaitTimeout is Wait bounded by d. It reports whether the run finished in time.
func (m *Machine) WaitTimeout(d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func (m *Machine) run(jobID string, in Input) {
	log := m.logger.WithJobID(jobID)
	var result *transcription.Result

	for i, phase := range m.phases {
		if i > 0 {
			m.mu.Lock()
			m.enter(phase)
			m.mu.Unlock()
		}
		log.Debug("Entered phase",
			logger.String("status", string(phase.Status)),
			logger.Int("progress", phase.Percent))

		if phase.Status == StatusTranscribing {
			res, err := m.transcribe(in)
			if err != nil {
				m.fail(log, err)
				return
			}
			result = res
		}

		if phase.Delay > 0 {
			<-m.clock.After(phase.Delay)
		}
	}

	if m.onResult != nil {
		m.onResult(jobID, result)
	}

	m.mu.Lock()
	m.status = StatusSuccess
	m.label = ""
	m.progress = 100
	m.result = result
	m.publish(Event{Type: EventTypeResult})
	m.mu.Unlock()

	log.Info("Processing finished",
		logger.Int("segments", len(result.Segments)),
		logger.String("detected_language", result.DetectedLanguage))
}

func (m *Machine) transcribe(in Input) (*transcription.Result, error) {
	ctx := context.Background()
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	result, err := m.transcriber.Transcribe(ctx, in.Data, in.MIMEType, in.Settings)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("transcriber returned no result")
	}
	return result, nil
}

// fail moves to error from whatever phase is active, keeping the last progress
func (m *Machine) fail(log *logger.Logger, err error) {
	log.Error("Processing failed", logger.Error(err))

	m.mu.Lock()
	defer m.mu.Unlock()

	m.status = StatusError
	m.label = ""
	m.failure = transcription.ErrTranscriptionFailed.Error()
	m.result = nil
	m.publish(Event{Type: EventTypeError, Message: m.failure})
}

// enter applies a phase; caller holds m.mu
func (m *Machine) enter(p Phase) {
	m.status = p.Status
	m.label = p.Label
	m.progress = p.Percent
	m.publish(Event{Type: EventTypeStatus})
}

// publish stamps the event with the current state; caller holds m.mu
func (m *Machine) publish(e Event) {
	e.JobID = m.jobID
	e.Status = m.status
	e.Progress = m.progress
	e.Label = m.label
	m.events.Publish(e)
}
