package interpreter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
)

// ErrMalformed marks model output that cannot be read as a reply.
var ErrMalformed = errors.New("malformed interpreter output")

const (
	wireNextQuestion  = "next_question"
	wireClarification = "clarification"
	wireComplete      = "complete"
)

type wirePayload struct {
	Type           string          `json:"type"`
	QuestionID     *string         `json:"questionId"`
	QuestionText   string          `json:"questionText"`
	SpeakText      string          `json:"speakText"`
	ValidationHint string          `json:"validationHint"`
	Reason         string          `json:"reason"`
	UpdatedAnswers json.RawMessage `json:"updatedAnswers"`
}

// Parse reads one reply. Every failure wraps ErrMalformed. Only the shape is checked
// here: whether the reply obeys the turn rules is up to the caller.
func Parse(text string, current interview.QuestionID) (Outcome, error) {
	cleaned := stripFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformed)
	}
	if !strings.HasPrefix(cleaned, "{") {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrMalformed)
	}

	var payload wirePayload
	decoder := json.NewDecoder(strings.NewReader(cleaned))
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: trailing content after JSON object", ErrMalformed)
	}

	answers, err := decodeAnswers(payload.UpdatedAnswers)
	if err != nil {
		return nil, err
	}

	switch payload.Type {
	case wireNextQuestion:
		if payload.QuestionID == nil || strings.TrimSpace(*payload.QuestionID) == "" {
			return nil, fmt.Errorf("%w: next_question without questionId", ErrMalformed)
		}
		return Advance{
			QuestionID:     interview.QuestionID(strings.TrimSpace(*payload.QuestionID)),
			QuestionText:   payload.QuestionText,
			SpeakText:      payload.SpeakText,
			ValidationHint: payload.ValidationHint,
			Answers:        answers,
		}, nil
	case wireClarification:
		qid := current
		if payload.QuestionID != nil && strings.TrimSpace(*payload.QuestionID) != "" {
			qid = interview.QuestionID(strings.TrimSpace(*payload.QuestionID))
		}
		return Clarify{
			QuestionID:   qid,
			QuestionText: payload.QuestionText,
			SpeakText:    payload.SpeakText,
			Reason:       payload.Reason,
			Answers:      answers,
		}, nil
	case wireComplete:
		return Complete{Answers: answers}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, payload.Type)
	}
}

func decodeAnswers(raw json.RawMessage) (interview.AnswerSet, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: missing updatedAnswers", ErrMalformed)
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: updatedAnswers is not an object", ErrMalformed)
	}

	var answers interview.AnswerSet
	if err := json.Unmarshal(trimmed, &answers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return answers, nil
}

func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```")
	if newline := strings.IndexByte(cleaned, '\n'); newline >= 0 {
		// drop the info string, e.g. ```json
		if lang := strings.TrimSpace(cleaned[:newline]); lang == "" || !strings.ContainsAny(lang, "{[") {
			cleaned = cleaned[newline+1:]
		}
	}
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
