package transcription

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yegors/vidscribe/internal/settings"
	"github.com/yegors/vidscribe/pkg/logger"
)

const validResultJSON = `{"segments":[{"startTime":"00:00","endTime":"00:05","speaker":"Speaker 1","text":"Hello"}],"summary":"A greeting.","detectedLanguage":"English"}`

func geminiReply(text string) string {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

// generateContentRequest is the subset of the wire request the tests inspect
type generateContentRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MIMEType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMIMEType string         `json:"responseMimeType"`
		ResponseSchema   map[string]any `json:"responseSchema"`
	} `json:"generationConfig"`
}

func newTestGeminiClient(t *testing.T, baseURL string) *GeminiClient {
	t.Helper()
	prompts, err := NewPromptBuilder("")
	if err != nil {
		t.Fatalf("NewPromptBuilder: %v", err)
	}
	c, err := NewGeminiClient(Config{APIKey: "test-key", Model: "test-model", APIBaseURL: baseURL}, prompts, logger.NewNop())
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	return c
}

func TestGeminiTranscribe(t *testing.T) {
	media := []byte("fake video bytes")
	var got generateContentRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("api key header = %q", r.Header.Get("x-goog-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(geminiReply(validResultJSON)))
	}))
	defer srv.Close()

	c := newTestGeminiClient(t, srv.URL)
	opts := settings.Defaults()
	opts.RemoveFillers = false

	result, err := c.Transcribe(context.Background(), media, "video/mp4", opts)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(result.Segments) != 1 || result.Segments[0].Text != "Hello" {
		t.Fatalf("result = %+v", result)
	}
	if result.Summary != "A greeting." {
		t.Errorf("summary = %q", result.Summary)
	}

	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 2 {
		t.Fatalf("request contents = %+v", got.Contents)
	}
	prompt := got.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "Keep the transcription verbatim.") {
		t.Errorf("prompt does not reflect settings:\n%s", prompt)
	}
	inline := got.Contents[0].Parts[1].InlineData
	if inline == nil {
		t.Fatal("missing inline data part")
	}
	if inline.MIMEType != "video/mp4" {
		t.Errorf("mime type = %q", inline.MIMEType)
	}
	if inline.Data != base64.StdEncoding.EncodeToString(media) {
		t.Errorf("inline data is not the base64 media")
	}
	if got.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Errorf("response mime type = %q", got.GenerationConfig.ResponseMIMEType)
	}
	if got.GenerationConfig.ResponseSchema["type"] != "OBJECT" {
		t.Errorf("schema = %v", got.GenerationConfig.ResponseSchema)
	}
}

func TestGeminiTranscribeFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`},
		{"rate limited", http.StatusTooManyRequests, `{}`},
		{"not json", http.StatusOK, `<html>`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"malformed result", http.StatusOK, geminiReply(`{"segments": [`)},
		{"incomplete result", http.StatusOK, geminiReply(`{"segments": []}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestGeminiClient(t, srv.URL)
			result, err := c.Transcribe(context.Background(), []byte("x"), "video/mp4", settings.Defaults())
			if !errors.Is(err, ErrTranscriptionFailed) {
				t.Fatalf("err = %v, want %v", err, ErrTranscriptionFailed)
			}
			if result != nil {
				t.Fatalf("result = %+v, want nil", result)
			}
		})
	}
}

func TestGeminiTranscribeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestGeminiClient(t, url)
	if _, err := c.Transcribe(context.Background(), []byte("x"), "video/mp4", settings.Defaults()); !errors.Is(err, ErrTranscriptionFailed) {
		t.Fatalf("err = %v, want %v", err, ErrTranscriptionFailed)
	}
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	prompts, _ := NewPromptBuilder("")
	c, err := NewGeminiClient(Config{}, prompts, logger.NewNop())
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}

	_, err = c.Transcribe(context.Background(), []byte("x"), "video/mp4", settings.Defaults())
	if !errors.Is(err, ErrTranscriptionFailed) || !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want %v wrapping %v", err, ErrTranscriptionFailed, ErrMissingAPIKey)
	}
	if want := "failed to process transcription via AI: gemini: api key is required"; err.Error() != want {
		t.Fatalf("err = %q, want %q", err.Error(), want)
	}
}
