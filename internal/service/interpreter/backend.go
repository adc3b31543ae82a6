package interpreter

import (
	"context"
	"fmt"
	"log"

	"github.com/zhouzirui/investor-interview/backend/internal/config"
)

// NewBackend builds the backend selected by configuration.
func NewBackend(ctx context.Context, ai config.AIConfig, cfg config.InterpreterConfig) (Backend, error) {
	provider, err := cfg.ResolveProvider(ai)
	if err != nil {
		return nil, err
	}

	switch provider {
	case config.ProviderArk:
		chatModel, err := ai.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		log.Printf("[interpreter] using ark model=%s", ai.Model)
		return NewEinoBackend(ctx, "ark", chatModel)
	case config.ProviderAnthropic:
		log.Printf("[interpreter] using anthropic model=%s", cfg.AnthropicModel)
		return NewAnthropicBackend(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.MaxTokens), nil
	case config.ProviderOpenAI:
		log.Printf("[interpreter] using openai model=%s", cfg.OpenAIModel)
		return NewOpenAIBackend(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unsupported interpreter provider %q", provider)
	}
}
