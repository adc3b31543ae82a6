package interview

import "github.com/zhouzirui/investor-interview/backend/internal/model/portfolio"

// ResponseType tags the outbound turn response.
type ResponseType string

const (
	TypeNextQuestion  ResponseType = "next_question"
	TypeClarification ResponseType = "clarification"
	TypeFinalResult   ResponseType = "final_result"
)

// TurnRequest is the inbound shape of one turn.
type TurnRequest struct {
	SessionID         string     `json:"sessionId"`
	Answers           AnswerSet  `json:"answers"`
	CurrentQuestionID QuestionID `json:"currentQuestionId"`
	LastUserUtterance string     `json:"lastUserUtterance"`
}

// Session converts the request into the snapshot it describes.
func (r TurnRequest) Session() Session {
	answers := r.Answers
	if answers == nil {
		answers = AnswerSet{}
	}
	return Session{
		SessionID:       r.SessionID,
		CurrentQuestion: r.CurrentQuestionID,
		Answers:         answers,
	}
}

// Response is one of NextQuestion, Clarification or FinalResult.
type Response interface {
	ResponseType() ResponseType
	isResponse()
}

// NextQuestion asks the next (or the same, when repeated) question.
type NextQuestion struct {
	Type           ResponseType `json:"type"`
	QuestionID     QuestionID   `json:"questionId"`
	QuestionText   string       `json:"questionText"`
	SpeakText      string       `json:"speakText"`
	ValidationHint string       `json:"validationHint"`
	UpdatedAnswers AnswerSet    `json:"updatedAnswers"`
}

// Clarification re-asks the current question with a reason.
type Clarification struct {
	Type           ResponseType `json:"type"`
	QuestionID     QuestionID   `json:"questionId"`
	QuestionText   string       `json:"questionText"`
	SpeakText      string       `json:"speakText"`
	Reason         string       `json:"reason"`
	UpdatedAnswers AnswerSet    `json:"updatedAnswers"`
}

// FinalResult is produced once per completed session and is read-only afterwards.
type FinalResult struct {
	Type                ResponseType        `json:"type"`
	Summary             Answers             `json:"summary"`
	SelectedPortfolioID portfolio.ID        `json:"selectedPortfolioId"`
	Rationale           string              `json:"rationale"`
	Portfolio           portfolio.Portfolio `json:"portfolio"`
	SpeakText           string              `json:"speakText"`
}

func (NextQuestion) ResponseType() ResponseType  { return TypeNextQuestion }
func (Clarification) ResponseType() ResponseType { return TypeClarification }
func (FinalResult) ResponseType() ResponseType   { return TypeFinalResult }

func (NextQuestion) isResponse()  {}
func (Clarification) isResponse() {}
func (FinalResult) isResponse()   {}
