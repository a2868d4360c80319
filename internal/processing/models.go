package processing

import (
	"fmt"
	"time"

	"github.com/yegors/vidscribe/internal/settings"
)

// Status is the visible processing phase. Exactly one is active at a time.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusUploading    Status = "uploading"
	StatusExtracting   Status = "extracting"
	StatusTranscribing Status = "transcribing"
	StatusFinalizing   Status = "finalizing"
	StatusSuccess      Status = "success"
	StatusError        Status = "error"
)

// order ranks the forward sequence of statuses
var order = map[Status]int{
	StatusIdle:         0,
	StatusUploading:    1,
	StatusExtracting:   2,
	StatusTranscribing: 3,
	StatusFinalizing:   4,
	StatusSuccess:      5,
}

// IsRunning reports whether a status is an in-flight phase
func (s Status) IsRunning() bool {
	switch s {
	case StatusUploading, StatusExtracting, StatusTranscribing, StatusFinalizing:
		return true
	default:
		return false
	}
}

// Phase is one step of the visible progress choreography.
// Delay is cosmetic and elapses after the phase is entered.
type Phase struct {
	Status  Status
	Label   string
	Percent int
	Delay   time.Duration
}

// DefaultPhases returns the standard choreography around the single network call
func DefaultPhases() []Phase {
	return []Phase{
		{Status: StatusUploading, Label: "Loading Video Data...", Percent: 20, Delay: 1000 * time.Millisecond},
		{Status: StatusExtracting, Label: "Extracting Audio...", Percent: 40, Delay: 1200 * time.Millisecond},
		{Status: StatusTranscribing, Label: "Running AI Transcription...", Percent: 70},
		{Status: StatusFinalizing, Label: "Polishing Output...", Percent: 90, Delay: 800 * time.Millisecond},
	}
}

// PhasesWithDelays returns the default choreography with custom cosmetic delays
func PhasesWithDelays(upload, extract, finalize time.Duration) []Phase {
	phases := DefaultPhases()
	phases[0].Delay = upload
	phases[1].Delay = extract
	phases[3].Delay = finalize
	return phases
}

// validatePhases checks the sequence is strictly forward, has rising
// percentages and contains the transcribing phase exactly once
func validatePhases(phases []Phase) error {
	if len(phases) == 0 {
		return fmt.Errorf("phase sequence is empty")
	}

	transcribing := 0
	prevOrder, prevPercent := 0, 0
	for i, p := range phases {
		if !p.Status.IsRunning() {
			return fmt.Errorf("phase %d has non-running status %q", i, p.Status)
		}
		if order[p.Status] <= prevOrder {
			return fmt.Errorf("phase %d (%s) is out of order", i, p.Status)
		}
		if p.Percent <= prevPercent || p.Percent >= 100 {
			return fmt.Errorf("phase %d (%s) has invalid percent %d", i, p.Status, p.Percent)
		}
		if p.Delay < 0 {
			return fmt.Errorf("phase %d (%s) has negative delay", i, p.Status)
		}
		if p.Status == StatusTranscribing {
			transcribing++
		}
		prevOrder, prevPercent = order[p.Status], p.Percent
	}

	if transcribing != 1 {
		return fmt.Errorf("phase sequence must contain %s exactly once", StatusTranscribing)
	}
	return nil
}

// Input is everything a single run needs
type Input struct {
	Data     []byte
	MIMEType string
	Settings settings.Settings
}

// Snapshot is a read-only view of the machine state
type Snapshot struct {
	JobID    string `json:"jobId,omitempty"`
	Status   Status `json:"status"`
	Label    string `json:"label,omitempty"`
	Progress int    `json:"progress"`
	Running  bool   `json:"running"`
	Error    string `json:"error,omitempty"`
}
