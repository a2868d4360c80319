package transcription

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/yegors/vidscribe/internal/settings"
)

// defaultPromptTemplate is rendered with settings.Settings as data
const defaultPromptTemplate = `Analyze the provided audio from this video.
1. Transcribe the spoken words accurately in their native language (Detect automatically, support English and Bangla).
2. Format the response as a JSON object with segments containing startTime, endTime, speaker, and text.
3. {{if .RemoveFillers}}Exclude filler words like 'um', 'uh', 'hmm'.{{else}}Keep the transcription verbatim.{{end}}
4. {{if .SpeakerDetection}}Differentiate between speakers if there are multiple.{{else}}Use 'Speaker 1' for all text.{{end}}
5. {{if .GenerateSummary}}Provide a concise summary of the content in English.{{end}}
6. Maintain proper punctuation and sentence structure.
7. Break paragraphs every 10-15 seconds.
`

// PromptBuilder renders the natural-language instruction sent with each request
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder parses the given template text, or the built-in one when empty
func NewPromptBuilder(text string) (*PromptBuilder, error) {
	if strings.TrimSpace(text) == "" {
		text = defaultPromptTemplate
	}

	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return &PromptBuilder{tmpl: tmpl}, nil
}

// LoadPrompt reads a prompt template from disk
func LoadPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt template %s: %w", path, err)
	}
	return string(data), nil
}

// Build renders the prompt for the given settings
func (b *PromptBuilder) Build(opts settings.Settings) (string, error) {
	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, opts); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}
