package interpreter

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// EinoBackend runs the conversation through an eino chat chain (Ark in production).
type EinoBackend struct {
	name  string
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewEinoBackend compiles a system + history chain over chatModel.
func NewEinoBackend(ctx context.Context, name string, chatModel model.BaseChatModel) (*EinoBackend, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("messages", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile interpreter chain: %w", err)
	}

	return &EinoBackend{name: name, chain: runnable}, nil
}

func (b *EinoBackend) Name() string { return b.name }

// Generate invokes the chain once.
func (b *EinoBackend) Generate(ctx context.Context, system string, messages []Message) (string, error) {
	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		default:
			history = append(history, schema.UserMessage(msg.Content))
		}
	}

	response, err := b.chain.Invoke(ctx, map[string]any{
		"system":   system,
		"messages": history,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run interpreter chain: %w", err)
	}
	if response == nil {
		return "", nil
	}
	return strings.TrimSpace(response.Content), nil
}
