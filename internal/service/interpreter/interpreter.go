// Package interpreter turns a free-form spoken answer into a structured interview
// outcome by asking a language model. It owns prompt construction, output parsing and
// the single repair retry; it does not enforce turn rules, which belong to the engine.
package interpreter

import (
	"context"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
)

// Request is one interpretation call: the answers so far, the question being answered
// and what the user said.
type Request struct {
	Answers    interview.AnswerSet
	QuestionID interview.QuestionID
	Utterance  string
}

// Outcome is one of Advance, Clarify or Complete.
type Outcome interface {
	isOutcome()
}

// Advance moves to QuestionID, or repeats the current question when QuestionID equals it.
type Advance struct {
	QuestionID     interview.QuestionID
	QuestionText   string
	SpeakText      string
	ValidationHint string
	Answers        interview.AnswerSet
}

// Clarify re-asks the current question.
type Clarify struct {
	QuestionID   interview.QuestionID
	QuestionText string
	SpeakText    string
	Reason       string
	Answers      interview.AnswerSet
}

// Complete reports that the last question has been answered.
type Complete struct {
	Answers interview.AnswerSet
}

func (Advance) isOutcome()  {}
func (Clarify) isOutcome()  {}
func (Complete) isOutcome() {}

// Interpreter produces an Outcome for a Request. Errors are *interview.InterpreterFailure.
type Interpreter interface {
	Interpret(ctx context.Context, req Request) (Outcome, error)
}

// Role is the speaker of a conversation message sent to a Backend.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to a Backend.
type Message struct {
	Role    Role
	Content string
}

// Backend is a raw text-completion call against one model provider.
type Backend interface {
	Name() string
	Generate(ctx context.Context, system string, messages []Message) (string, error)
}
