package transcription

import (
	"errors"
	"time"
)

var (
	// ErrTranscriptionFailed is the single opaque failure surfaced for any transport, status or parse problem
	ErrTranscriptionFailed = errors.New("failed to process transcription via AI")
	// ErrMissingAPIKey is wrapped into ErrTranscriptionFailed when no credential was configured
	ErrMissingAPIKey = errors.New("api key is required")
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel = "gemini-3-flash-preview"
	DefaultOpenAIModel = "gpt-4o"
)

// Segment is one timed, attributed unit of transcribed speech.
// Times are free-form strings as returned by the service.
type Segment struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
}

// Result is the structured transcript of a single run
type Result struct {
	Segments         []Segment `json:"segments"`
	Summary          string    `json:"summary"`
	DetectedLanguage string    `json:"detectedLanguage"`
}

// Config represents the configuration for the transcription clients
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	APIBaseURL string
	PromptPath string
	Prompt     string        // Loaded from PromptPath, empty means the built-in template
	Timeout    time.Duration // Zero means no timeout
}
