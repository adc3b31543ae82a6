package interpreter

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
)

const maxAttempts = 2

// Adapter implements Interpreter over a Backend. Malformed output is retried exactly
// once with the bad reply and a correction appended to the conversation.
type Adapter struct {
	backend Backend
	system  string
	repair  bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRepair tries a local JSON repair on malformed output before spending the retry.
func WithRepair(enabled bool) Option {
	return func(a *Adapter) {
		a.repair = enabled
	}
}

// WithSystemPrompt overrides the built-in instructions.
func WithSystemPrompt(prompt string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(prompt) != "" {
			a.system = prompt
		}
	}
}

// NewAdapter wraps backend.
func NewAdapter(backend Backend, opts ...Option) *Adapter {
	a := &Adapter{
		backend: backend,
		system:  SystemPrompt(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Backend returns the wrapped backend.
func (a *Adapter) Backend() Backend {
	return a.backend
}

// Interpret asks the backend for one reply and parses it.
func (a *Adapter) Interpret(ctx context.Context, req Request) (Outcome, error) {
	if a == nil || a.backend == nil {
		return nil, &interview.InterpreterFailure{Attempts: 0, Err: fmt.Errorf("interpreter backend not configured")}
	}

	userMessage := BuildUserMessage(req)
	conversation := []Message{{Role: RoleUser, Content: userMessage}}

	text, err := a.backend.Generate(ctx, a.system, conversation)
	if err != nil {
		return nil, &interview.InterpreterFailure{Attempts: 1, Err: err}
	}

	outcome, parseErr := Parse(text, req.QuestionID)
	if parseErr == nil {
		return outcome, nil
	}

	if a.repair {
		if outcome, ok := a.tryRepair(text, req.QuestionID); ok {
			log.Printf("[interpreter] repaired malformed %s output for question=%s", a.backend.Name(), req.QuestionID)
			return outcome, nil
		}
	}

	log.Printf("[interpreter] malformed %s output for question=%s, retrying: %v", a.backend.Name(), req.QuestionID, parseErr)

	if err := ctx.Err(); err != nil {
		return nil, &interview.InterpreterFailure{Attempts: 1, Err: err}
	}

	conversation = append(conversation,
		Message{Role: RoleAssistant, Content: text},
		Message{Role: RoleUser, Content: correctionMessage(parseErr)},
	)

	retryText, err := a.backend.Generate(ctx, a.system, conversation)
	if err != nil {
		return nil, &interview.InterpreterFailure{Attempts: maxAttempts, Err: err}
	}

	outcome, retryErr := Parse(retryText, req.QuestionID)
	if retryErr != nil {
		log.Printf("[interpreter] %s output still malformed after retry for question=%s: %v", a.backend.Name(), req.QuestionID, retryErr)
		return nil, &interview.InterpreterFailure{Attempts: maxAttempts, Err: retryErr}
	}
	return outcome, nil
}

func (a *Adapter) tryRepair(text string, current interview.QuestionID) (Outcome, bool) {
	repaired, err := jsonrepair.JSONRepair(stripFences(text))
	if err != nil {
		return nil, false
	}
	outcome, err := Parse(repaired, current)
	if err != nil {
		return nil, false
	}
	return outcome, true
}
