package interpreter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
)

func TestParseNextQuestion(t *testing.T) {
	text := `{"type":"next_question","questionId":"Q2","questionText":"What is your age?","speakText":"Nice to meet you, Ana. What is your age?","validationHint":"A number","updatedAnswers":{"name":"Ana"}}`

	outcome, err := Parse(text, interview.Q1)
	require.NoError(t, err)

	advance, ok := outcome.(Advance)
	require.True(t, ok, "expected Advance, got %T", outcome)
	assert.Equal(t, interview.Q2, advance.QuestionID)
	assert.Equal(t, "A number", advance.ValidationHint)
	assert.Equal(t, interview.AnswerSet{interview.FieldName: "Ana"}, advance.Answers)
}

func TestParseStripsCodeFences(t *testing.T) {
	text := "```json\n{\"type\":\"clarification\",\"questionId\":\"Q2\",\"reason\":\"no number\",\"updatedAnswers\":{\"name\":\"Ana\"}}\n```"

	outcome, err := Parse(text, interview.Q2)
	require.NoError(t, err)

	clarify, ok := outcome.(Clarify)
	require.True(t, ok)
	assert.Equal(t, "no number", clarify.Reason)
}

func TestParseClarificationDefaultsToCurrentQuestion(t *testing.T) {
	outcome, err := Parse(`{"type":"clarification","updatedAnswers":{}}`, interview.Q7)
	require.NoError(t, err)
	assert.Equal(t, interview.Q7, outcome.(Clarify).QuestionID)
}

func TestParseComplete(t *testing.T) {
	outcome, err := Parse(`{"type":"complete","updatedAnswers":{"age":44,"riskForReturn":"high"}}`, interview.Q11)
	require.NoError(t, err)

	complete, ok := outcome.(Complete)
	require.True(t, ok)
	assert.Equal(t, 44, complete.Answers[interview.FieldAge])
	assert.Equal(t, interview.RiskHigh, complete.Answers[interview.FieldRiskForReturn])
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"prose":              "Sure! Here is the next question.",
		"empty":              "   ",
		"broken json":        `{"type":"next_question",`,
		"unknown type":       `{"type":"final","updatedAnswers":{}}`,
		"missing type":       `{"updatedAnswers":{}}`,
		"missing answers":    `{"type":"complete"}`,
		"null answers":       `{"type":"complete","updatedAnswers":null}`,
		"answers not object": `{"type":"complete","updatedAnswers":[1,2]}`,
		"missing questionId": `{"type":"next_question","updatedAnswers":{}}`,
		"age as text":        `{"type":"next_question","questionId":"Q3","updatedAnswers":{"age":"forty"}}`,
		"fractional age":     `{"type":"next_question","questionId":"Q3","updatedAnswers":{"age":40.5}}`,
		"trailing text":      `{"type":"complete","updatedAnswers":{}} thanks!`,
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text, interview.Q2)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "error %v should wrap ErrMalformed", err)
		})
	}
}

func TestSystemPromptListsEveryQuestion(t *testing.T) {
	prompt := SystemPrompt()
	for _, q := range interview.Questions() {
		assert.Contains(t, prompt, q.Text)
		assert.Contains(t, prompt, string(q.Field))
	}
}

func TestBuildUserMessage(t *testing.T) {
	msg := BuildUserMessage(Request{
		Answers:    interview.AnswerSet{interview.FieldName: "Ana"},
		QuestionID: interview.Q2,
		Utterance:  "I'm 44",
	})
	assert.Contains(t, msg, "Current question: Q2")
	assert.Contains(t, msg, `{"name":"Ana"}`)
	assert.Contains(t, msg, `"I'm 44"`)
	assert.Contains(t, msg, "next question is Q3")

	last := BuildUserMessage(Request{Answers: interview.AnswerSet{}, QuestionID: interview.Q11, Utterance: "low"})
	assert.Contains(t, last, "reply with complete")
}
