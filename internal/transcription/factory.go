package transcription

import (
	"fmt"

	"github.com/yegors/vidscribe/pkg/logger"
)

// New builds the Transcriber selected by config.Provider
func New(config Config, logger *logger.Logger) (Transcriber, error) {
	prompts, err := NewPromptBuilder(config.Prompt)
	if err != nil {
		return nil, err
	}

	switch config.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(config, prompts, logger)
	case ProviderOpenAI:
		return NewOpenAIClient(config, prompts, logger), nil
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", config.Provider)
	}
}
