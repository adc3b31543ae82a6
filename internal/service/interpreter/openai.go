package interpreter

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIBackend calls an OpenAI-compatible chat completions endpoint.
type OpenAIBackend struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// NewOpenAIBackend creates a backend. baseURL may be empty for the public API.
func NewOpenAIBackend(apiKey, model, baseURL string, maxTokens int, opts ...option.RequestOption) *OpenAIBackend {
	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &OpenAIBackend{
		client:    openai.NewClient(clientOpts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (b *OpenAIBackend) Name() string { return "openai" }

// Generate sends one chat completion request.
func (b *OpenAIBackend) Generate(ctx context.Context, system string, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(b.model),
		MaxTokens: openai.Int(b.maxTokens),
		Messages:  make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1),
	}
	if system != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(system))
	}
	for _, msg := range messages {
		if msg.Role == RoleAssistant {
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
			continue
		}
		params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
