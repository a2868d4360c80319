package transcription

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

var segmentFields = []string{"startTime", "endTime", "speaker", "text"}

// geminiResponseSchema is the OpenAPI-subset schema understood by generateContent
func geminiResponseSchema() *genai.Schema {
	segmentProps := map[string]*genai.Schema{}
	for _, f := range segmentFields {
		segmentProps[f] = &genai.Schema{Type: genai.TypeString}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"segments": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: segmentProps,
					Required:   segmentFields,
				},
			},
			"summary":          {Type: genai.TypeString},
			"detectedLanguage": {Type: genai.TypeString},
		},
		Required: []string{"segments", "summary", "detectedLanguage"},
	}
}

// jsonSchema is the strict JSON Schema form used for OpenAI structured outputs
func jsonSchema() map[string]any {
	segmentProps := map[string]any{}
	for _, f := range segmentFields {
		segmentProps[f] = map[string]any{"type": "string"}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"segments": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"properties":           segmentProps,
					"required":             segmentFields,
					"additionalProperties": false,
				},
			},
			"summary":          map[string]any{"type": "string"},
			"detectedLanguage": map[string]any{"type": "string"},
		},
		"required":             []string{"segments", "summary", "detectedLanguage"},
		"additionalProperties": false,
	}
}

// wireSegment uses pointers so absent fields can be told apart from empty ones
type wireSegment struct {
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
	Speaker   *string `json:"speaker"`
	Text      *string `json:"text"`
}

type wireResult struct {
	Segments         *[]wireSegment `json:"segments"`
	Summary          *string        `json:"summary"`
	DetectedLanguage *string        `json:"detectedLanguage"`
}

// ParseResult decodes a model response body into a Result.
// Missing required fields are an error; there is no partial recovery.
func ParseResult(body string) (*Result, error) {
	var w wireResult
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return nil, fmt.Errorf("failed to decode transcription JSON: %w", err)
	}

	switch {
	case w.Segments == nil:
		return nil, fmt.Errorf("response is missing segments")
	case w.Summary == nil:
		return nil, fmt.Errorf("response is missing summary")
	case w.DetectedLanguage == nil:
		return nil, fmt.Errorf("response is missing detectedLanguage")
	}

	result := &Result{
		Segments:         make([]Segment, 0, len(*w.Segments)),
		Summary:          *w.Summary,
		DetectedLanguage: *w.DetectedLanguage,
	}
	for i, s := range *w.Segments {
		if s.StartTime == nil || s.EndTime == nil || s.Speaker == nil || s.Text == nil {
			return nil, fmt.Errorf("segment %d is missing required fields", i)
		}
		result.Segments = append(result.Segments, Segment{
			StartTime: *s.StartTime,
			EndTime:   *s.EndTime,
			Speaker:   *s.Speaker,
			Text:      *s.Text,
		})
	}

	return result, nil
}
