package interpreter

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicBackend calls the Claude Messages API.
type AnthropicBackend struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicBackend creates a backend; extra request options are passed to the SDK
// client after the API key.
func NewAnthropicBackend(apiKey, model string, maxTokens int, opts ...option.RequestOption) *AnthropicBackend {
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicBackend{
		client:    anthropic.NewClient(clientOpts...),
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
	}
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

// Generate sends one Messages request and joins the text blocks of the reply.
func (b *AnthropicBackend) Generate(ctx context.Context, system string, messages []Message) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		Messages:  make([]anthropic.MessageParam, 0, len(messages)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system, Type: "text"}}
	}
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
			continue
		}
		params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
	}

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages request failed: %w", err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return "", nil
	}

	var builder strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			builder.WriteString(block.AsText().Text)
		}
	}
	return strings.TrimSpace(builder.String()), nil
}
