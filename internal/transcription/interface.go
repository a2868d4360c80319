package transcription

import (
	"context"

	"github.com/yegors/vidscribe/internal/settings"
)

// Transcriber sends one media file to an external AI service and returns the structured transcript
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, mimeType string, opts settings.Settings) (*Result, error)
}

// Ensure the clients implement the interface
var (
	_ Transcriber = (*GeminiClient)(nil)
	_ Transcriber = (*OpenAIClient)(nil)
)
