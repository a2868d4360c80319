package transcription

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/yegors/vidscribe/internal/settings"
	"github.com/yegors/vidscribe/pkg/logger"
)

// OpenAIClient transcribes through any OpenAI-compatible chat completions endpoint
// using a strict JSON schema response format
type OpenAIClient struct {
	client  openai.Client
	model   string
	prompts *PromptBuilder
	logger  *logger.Logger
}

// NewOpenAIClient creates a new OpenAI transcription client
func NewOpenAIClient(config Config, prompts *PromptBuilder, logger *logger.Logger) *OpenAIClient {
	if config.APIKey == "" {
		logger.Warn("OpenAI API key is empty - transcription requests will fail")
	}

	model := config.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	// Failures are surfaced as-is, never retried
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.APIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.APIBaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   model,
		prompts: prompts,
		logger:  logger.Named("openai-client"),
	}
}

// Transcribe sends the media as a data-URL file part and parses the structured response
func (c *OpenAIClient) Transcribe(ctx context.Context, data []byte, mimeType string, opts settings.Settings) (*Result, error) {
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

func (c *OpenAIClient) transcribe(ctx context.Context, data []byte, mimeType string, opts settings.Settings) (*Result, error) {
	prompt, err := c.prompts.Build(opts)
	if err != nil {
		return nil, err
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.FileContentPart(openai.ChatCompletionFileContentPartParam{
					FileData: openai.String(dataURL),
					Filename: openai.String("video"),
				}),
			}),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "transcription_result",
					Schema: jsonSchema(),
					Strict: openai.Bool(true),
				},
			},
		},
	}

	c.logger.Info("Sending transcription request",
		logger.String("model", c.model),
		logger.String("mime_type", mimeType),
		logger.Int("media_bytes", len(data)))

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("response contained no content")
	}

	result, err := ParseResult(content)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Transcription received",
		logger.Int("segments", len(result.Segments)),
		logger.String("detected_language", result.DetectedLanguage),
		logger.Duration("elapsed", time.Since(start)))

	return result, nil
}
