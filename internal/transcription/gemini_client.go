package transcription

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/yegors/vidscribe/internal/settings"
	"github.com/yegors/vidscribe/pkg/logger"
)

// GeminiClient transcribes through the Gemini generateContent API.
// The request carries the prompt and the media as inline data.
type GeminiClient struct {
	client  *genai.Client // nil when no API key is configured
	model   string
	prompts *PromptBuilder
	logger  *logger.Logger
}

// NewGeminiClient creates a new Gemini transcription client
func NewGeminiClient(config Config, prompts *PromptBuilder, logger *logger.Logger) (*GeminiClient, error) {
	model := config.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	c := &GeminiClient{
		model:   model,
		prompts: prompts,
		logger:  logger.Named("gemini-client"),
	}

	if config.APIKey == "" {
		c.logger.Warn("Gemini API key is empty - transcription requests will fail")
		return c, nil
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		HTTPOptions: genai.HTTPOptions{
			BaseURL: config.APIBaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client

	return c, nil
}

// Transcribe sends the media to Gemini and parses the structured response
func (c *GeminiClient) Transcribe(ctx context.Context, data []byte, mimeType string, opts settings.Settings) (*Result, error) {
	result, err := c.transcribe(ctx, data, mimeType, opts)
	if err != nil {
		c.logger.Error("Transcription request failed",
			logger.String("model", c.model),
			logger.String("mime_type", mimeType),
			logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	return result, nil
}

func (c *GeminiClient) transcribe(ctx context.Context, data []byte, mimeType string, opts settings.Settings) (*Result, error) {
	if c.client == nil {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	prompt, err := c.prompts.Build(opts)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiResponseSchema(),
	}

	c.logger.Info("Sending transcription request",
		logger.String("model", c.model),
		logger.String("mime_type", mimeType),
		logger.Int("media_bytes", len(data)),
		logger.Bool("remove_fillers", opts.RemoveFillers),
		logger.Bool("speaker_detection", opts.SpeakerDetection),
		logger.Bool("generate_summary", opts.GenerateSummary))

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generateContent request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("response contained no text")
	}

	result, err := ParseResult(text)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Transcription received",
		logger.Int("segments", len(result.Segments)),
		logger.String("detected_language", result.DetectedLanguage),
		logger.Duration("elapsed", time.Since(start)))

	return result, nil
}
