package interview

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Session is the interview progress snapshot the frontend persists between turns.
type Session struct {
	SessionID       string       `json:"sessionId"`
	CurrentQuestion QuestionID   `json:"currentQuestionId"`
	Answers         AnswerSet    `json:"answers"`
	Complete        bool         `json:"isComplete"`
	FinalResult     *FinalResult `json:"finalResult,omitempty"`
}

// NewSession starts an interview at the first question with no answers.
func NewSession(id string) Session {
	return Session{
		SessionID:       id,
		CurrentQuestion: FirstQuestion,
		Answers:         AnswerSet{},
	}
}

// Clone returns a copy that shares no mutable state with s.
func (s Session) Clone() Session {
	out := s
	out.Answers = s.Answers.Clone()
	if s.FinalResult != nil {
		fr := *s.FinalResult
		out.FinalResult = &fr
	}
	return out
}

// EncodeSession serializes the envelope.
func EncodeSession(s Session) ([]byte, error) {
	if s.Answers == nil {
		s.Answers = AnswerSet{}
	}
	return json.Marshal(s)
}

// DecodeSession parses an envelope and checks its shape. Stored answer values are
// trusted as given; only their JSON types are checked.
func DecodeSession(data []byte) (Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decode session envelope: %w", err)
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return Session{}, fmt.Errorf("decode session envelope: missing sessionId")
	}
	if !s.CurrentQuestion.Valid() {
		return Session{}, fmt.Errorf("decode session envelope: unknown question %q", s.CurrentQuestion)
	}
	if s.Answers == nil {
		s.Answers = AnswerSet{}
	}
	if s.Complete && s.FinalResult == nil {
		return Session{}, fmt.Errorf("decode session envelope: completed session without final result")
	}
	return s, nil
}
