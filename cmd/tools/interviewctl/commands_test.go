package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
	"github.com/zhouzirui/investor-interview/backend/internal/service/interpreter"
	interviewService "github.com/zhouzirui/investor-interview/backend/internal/service/interview"
	"github.com/zhouzirui/investor-interview/backend/internal/service/session"
)

func TestQuestionsCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"questions"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Can you tell me your name please?")
	assert.Contains(t, out.String(), "Q11")
}

func TestSelectCommand(t *testing.T) {
	answers := `{"name":"Lee","age":65,"familySituation":"retired","wealthSource":"pension",
		"coreValues":"none","investmentGoal":"income","riskForReturn":"medium",
		"investmentAmount":"lump sum","foreseeableNeeds":"No","investmentHorizon":"5-15 years",
		"riskToleranceConfirm":"low"}`

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(answers))
	cmd.SetArgs([]string{"select"})
	require.NoError(t, cmd.Execute())

	var result map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "P2", result["selectedPortfolioId"])
	assert.Contains(t, result["rationale"], "risk tolerance is low")
}

func TestSelectCommandRejectsIncompleteAnswers(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(`{"name":"Lee"}`))
	cmd.SetArgs([]string{"select"})
	assert.Error(t, cmd.Execute())
}

type scriptedInterpreter struct {
	outcomes []interpreter.Outcome
	calls    int
}

func (s *scriptedInterpreter) Interpret(context.Context, interpreter.Request) (interpreter.Outcome, error) {
	if s.calls >= len(s.outcomes) {
		return nil, &interview.InterpreterFailure{Attempts: 1, Err: interpreter.ErrMalformed}
	}
	o := s.outcomes[s.calls]
	s.calls++
	return o, nil
}

func TestConsoleRunsAndPersists(t *testing.T) {
	selector, err := newSelector()
	require.NoError(t, err)

	interp := &scriptedInterpreter{outcomes: []interpreter.Outcome{
		interpreter.Advance{QuestionID: interview.Q2, SpeakText: "Thanks Lee. What is your age?",
			Answers: interview.AnswerSet{interview.FieldName: "Lee"}},
	}}
	store, err := session.NewMemoryStore(4, 0)
	require.NoError(t, err)

	var out bytes.Buffer
	c := &console{
		engine: interviewService.NewEngine(interp, selector, interviewService.WithIDGenerator(func() string { return "cli-1" })),
		store:  store,
		slot:   "terminal",
		in:     strings.NewReader("Lee\n\nsixty\n"),
		out:    &out,
	}
	require.NoError(t, c.run(context.Background(), false))

	assert.Contains(t, out.String(), "[Q1] Welcome!")
	assert.Contains(t, out.String(), "[Q2] Thanks Lee. What is your age?")
	assert.Contains(t, out.String(), "please answer again")

	saved, err := store.Load(context.Background(), "terminal")
	require.NoError(t, err)
	assert.Equal(t, "cli-1", saved.SessionID)
	assert.Equal(t, interview.Q2, saved.CurrentQuestion)
	assert.Equal(t, "Lee", saved.Answers[interview.FieldName])
}

func TestConsoleResumesSavedSession(t *testing.T) {
	selector, err := newSelector()
	require.NoError(t, err)
	store, err := session.NewMemoryStore(4, 0)
	require.NoError(t, err)

	saved := interview.Session{
		SessionID:       "cli-2",
		CurrentQuestion: interview.Q3,
		Answers:         interview.AnswerSet{interview.FieldName: "Lee", interview.FieldAge: 65},
	}
	require.NoError(t, store.Save(context.Background(), "terminal", saved))

	var out bytes.Buffer
	c := &console{
		engine: interviewService.NewEngine(&scriptedInterpreter{}, selector),
		store:  store,
		slot:   "terminal",
		in:     strings.NewReader(""),
		out:    &out,
	}
	require.NoError(t, c.run(context.Background(), true))
	assert.Contains(t, out.String(), "resuming cli-2 at Q3")
	assert.Contains(t, out.String(), "What is your family situation?")
}
