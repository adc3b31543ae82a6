// Package interview runs the questionnaire turn by turn. The engine is stateless: every
// call receives the session snapshot and returns a new one, leaving the input untouched.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
	"github.com/zhouzirui/investor-interview/backend/internal/service/interpreter"
	portfolioService "github.com/zhouzirui/investor-interview/backend/internal/service/portfolio"
)

const welcomePrefix = "Welcome! Let's get started with your investment questionnaire. "

// Turn is the result of one engine operation: the snapshot to persist and the response
// to send back.
type Turn struct {
	Session  interview.Session
	Response interview.Response
}

// Recorder receives per-turn measurements.
type Recorder interface {
	ObserveTurn(result string, elapsed time.Duration)
	ObserveSelection(result portfolioService.Selection)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTurn(string, time.Duration)           {}
func (nopRecorder) ObserveSelection(portfolioService.Selection) {}

// Result labels passed to Recorder.ObserveTurn.
const (
	ResultNextQuestion       = "next_question"
	ResultRepeat             = "repeat"
	ResultClarification      = "clarification"
	ResultFinal              = "final_result"
	ResultInvalidInput       = "invalid_input"
	ResultInterpreterFailure = "interpreter_failure"
	ResultProtocolError      = "protocol_error"
)

// Engine drives the interview.
type Engine struct {
	interpreter interpreter.Interpreter
	selector    *portfolioService.Selector
	recorder    Recorder
	newID       func() string
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithIDGenerator replaces uuid session ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine wires an engine.
func NewEngine(interp interpreter.Interpreter, selector *portfolioService.Selector, opts ...Option) *Engine {
	e := &Engine{
		interpreter: interp,
		selector:    selector,
		recorder:    nopRecorder{},
		newID:       uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Healthy reports whether the engine has everything it needs to run a turn.
func (e *Engine) Healthy() bool {
	return e != nil && e.interpreter != nil && e.selector != nil
}

// Start opens a new session at the first question.
func (e *Engine) Start() Turn {
	session := interview.NewSession(e.newID())
	first, _ := interview.Lookup(interview.FirstQuestion)

	log.Printf("[interview] session started: %s", session.SessionID)
	return Turn{
		Session: session,
		Response: interview.NextQuestion{
			Type:           interview.TypeNextQuestion,
			QuestionID:     first.ID,
			QuestionText:   first.Text,
			SpeakText:      welcomePrefix + first.Text,
			ValidationHint: first.Hint,
			UpdatedAnswers: interview.AnswerSet{},
		},
	}
}

// Advance interprets one utterance for the session's current question. On any error the
// returned Turn is zero and the caller keeps its previous snapshot.
func (e *Engine) Advance(ctx context.Context, session interview.Session, utterance string) (Turn, error) {
	started := e.now()
	turn, result, err := e.advance(ctx, session, utterance)
	e.recorder.ObserveTurn(result, e.now().Sub(started))
	return turn, err
}

func (e *Engine) advance(ctx context.Context, session interview.Session, utterance string) (Turn, string, error) {
	utterance = strings.TrimSpace(utterance)
	switch {
	case strings.TrimSpace(session.SessionID) == "":
		return Turn{}, ResultInvalidInput, interview.InvalidInput("sessionId is required")
	case !session.CurrentQuestion.Valid():
		return Turn{}, ResultInvalidInput, interview.InvalidInput("unknown question %q", session.CurrentQuestion)
	case session.Complete:
		return Turn{}, ResultInvalidInput, interview.InvalidInput("session %s is already complete", session.SessionID)
	case utterance == "":
		return Turn{}, ResultInvalidInput, interview.InvalidInput("lastUserUtterance must not be empty")
	}
	if !e.Healthy() {
		return Turn{}, ResultInterpreterFailure, &interview.InterpreterFailure{Err: errors.New("interview engine not configured")}
	}

	previous := session.Answers.Clone()
	outcome, err := e.interpreter.Interpret(ctx, interpreter.Request{
		Answers:    previous.Clone(),
		QuestionID: session.CurrentQuestion,
		Utterance:  utterance,
	})
	if err != nil {
		var failure *interview.InterpreterFailure
		if !errors.As(err, &failure) {
			err = &interview.InterpreterFailure{Attempts: 1, Err: err}
		}
		log.Printf("[interview] interpreter failed for session=%s question=%s: %v", session.SessionID, session.CurrentQuestion, err)
		return Turn{}, ResultInterpreterFailure, err
	}

	var (
		turn   Turn
		result string
	)
	switch o := outcome.(type) {
	case interpreter.Advance:
		turn, result, err = e.applyAdvance(session, previous, o)
	case interpreter.Clarify:
		turn, result, err = e.applyClarify(session, previous, o)
	case interpreter.Complete:
		turn, result, err = e.applyComplete(session, previous, o)
	default:
		err = &interview.ProtocolError{Reason: fmt.Sprintf("unexpected outcome %T", outcome)}
	}
	if err != nil {
		return Turn{}, classify(err), e.logFailure(session, err)
	}
	return turn, result, nil
}

func (e *Engine) applyAdvance(session interview.Session, previous interview.AnswerSet, o interpreter.Advance) (Turn, string, error) {
	current := session.CurrentQuestion
	question, _ := interview.Lookup(current)

	if o.QuestionID == current {
		if !o.Answers.Equal(previous) {
			return Turn{}, "", &interview.ProtocolError{Reason: fmt.Sprintf("repeat of %s changed the answers", current)}
		}
		return Turn{
			Session:  session.Clone(),
			Response: nextQuestionResponse(question, o.SpeakText, o.ValidationHint, previous),
		}, ResultRepeat, nil
	}

	next, ok := interview.Next(current)
	if !ok {
		return Turn{}, "", &interview.ProtocolError{Reason: fmt.Sprintf("cannot advance past %s; the interview must complete", current)}
	}
	if o.QuestionID != next {
		return Turn{}, "", &interview.ProtocolError{Reason: fmt.Sprintf("advance from %s must target %s, got %q", current, next, o.QuestionID)}
	}

	answers, err := mergeCurrentField(current, previous, o.Answers)
	if err != nil {
		return Turn{}, "", err
	}

	nextQuestion, _ := interview.Lookup(next)
	updated := session.Clone()
	updated.CurrentQuestion = next
	updated.Answers = answers

	log.Printf("[interview] session=%s answered %s, next=%s", session.SessionID, current, next)
	return Turn{
		Session:  updated,
		Response: nextQuestionResponse(nextQuestion, o.SpeakText, o.ValidationHint, answers),
	}, ResultNextQuestion, nil
}

func (e *Engine) applyClarify(session interview.Session, previous interview.AnswerSet, o interpreter.Clarify) (Turn, string, error) {
	current := session.CurrentQuestion
	if o.QuestionID != "" && o.QuestionID != current {
		return Turn{}, "", &interview.ProtocolError{Reason: fmt.Sprintf("clarification for %q while asking %s", o.QuestionID, current)}
	}

	question, _ := interview.Lookup(current)
	if err := checkCarryForward(previous, o.Answers, question.Field); err != nil {
		return Turn{}, "", err
	}
	if value, ok := o.Answers[question.Field]; ok {
		if prior, had := previous[question.Field]; !had || prior != value {
			return Turn{}, "", &interview.ProtocolError{Reason: fmt.Sprintf("clarification set %s", question.Field)}
		}
	}
	if extra := o.Answers.Beyond(current); len(extra) > 0 {
		return Turn{}, "", &interview.ProtocolError{Reason: fmt.Sprintf("clarification filled unasked fields %v", extra)}
	}

	speak := strings.TrimSpace(o.SpeakText)
	if speak == "" {
		speak = question.Text
	}

	log.Printf("[interview] session=%s clarification on %s: %s", session.SessionID, current, o.Reason)
	return Turn{
		Session: session.Clone(),
		Response: interview.Clarification{
			Type:           interview.TypeClarification,
			QuestionID:     current,
			QuestionText:   question.Text,
			SpeakText:      speak,
			Reason:         o.Reason,
			UpdatedAnswers: previous.Clone(),
		},
	}, ResultClarification, nil
}

func (e *Engine) applyComplete(session interview.Session, previous interview.AnswerSet, o interpreter.Complete) (Turn, string, error) {
	if session.CurrentQuestion != interview.LastQuestion {
		return Turn{}, "", &interview.ProtocolError{Reason: fmt.Sprintf("complete while asking %s", session.CurrentQuestion)}
	}

	answers, err := mergeCurrentField(session.CurrentQuestion, previous, o.Answers)
	if err != nil {
		return Turn{}, "", err
	}

	complete, err := answers.Complete()
	if err != nil {
		return Turn{}, "", &interview.ProtocolError{Reason: "completed answers failed validation", Err: err}
	}

	turn, err := e.finish(session, complete)
	if err != nil {
		return Turn{}, "", err
	}
	return turn, ResultFinal, nil
}

// Finalize completes a reviewed, fully answered session without another interpretation
// call. It is the path taken after answers were edited on the review screen.
func (e *Engine) Finalize(session interview.Session) (Turn, error) {
	started := e.now()
	turn, result, err := e.finalize(session)
	e.recorder.ObserveTurn(result, e.now().Sub(started))
	return turn, err
}

func (e *Engine) finalize(session interview.Session) (Turn, string, error) {
	if strings.TrimSpace(session.SessionID) == "" {
		return Turn{}, ResultInvalidInput, interview.InvalidInput("sessionId is required")
	}
	if e.selector == nil {
		return Turn{}, ResultInterpreterFailure, &interview.InterpreterFailure{Err: errors.New("portfolio selector not configured")}
	}

	complete, err := session.Answers.Complete()
	if err != nil {
		return Turn{}, ResultInvalidInput, &interview.InvalidInputError{Reason: err.Error()}
	}

	turn, err := e.finish(session, complete)
	if err != nil {
		return Turn{}, classify(err), e.logFailure(session, err)
	}
	return turn, ResultFinal, nil
}

func (e *Engine) finish(session interview.Session, answers interview.Answers) (Turn, error) {
	if e.selector == nil {
		return Turn{}, &interview.InterpreterFailure{Err: errors.New("portfolio selector not configured")}
	}
	selection, err := e.selector.Select(answers)
	if err != nil {
		return Turn{}, err
	}
	e.recorder.ObserveSelection(selection)

	final := interview.FinalResult{
		Type:                interview.TypeFinalResult,
		Summary:             answers,
		SelectedPortfolioID: selection.PortfolioID,
		Rationale:           selection.Rationale,
		Portfolio:           selection.Portfolio,
		SpeakText:           fmt.Sprintf("Based on your profile, I've selected the %s for you. %s", selection.Portfolio.Title, selection.Rationale),
	}

	updated := session.Clone()
	updated.CurrentQuestion = interview.LastQuestion
	updated.Answers = answers.AnswerSet()
	updated.Complete = true
	updated.FinalResult = &final

	log.Printf("[interview] session=%s complete, portfolio=%s", session.SessionID, selection.PortfolioID)
	return Turn{Session: updated, Response: final}, nil
}

// Revise replaces the answer to an already answered question. The value is parsed
// locally with the same normalization rules the interpreter is asked to apply. A
// completed session is reopened at the last question so it can be finalized again.
func (e *Engine) Revise(session interview.Session, id interview.QuestionID, value string) (interview.Session, error) {
	if strings.TrimSpace(session.SessionID) == "" {
		return interview.Session{}, interview.InvalidInput("sessionId is required")
	}
	question, ok := interview.Lookup(id)
	if !ok {
		return interview.Session{}, interview.InvalidInput("unknown question %q", id)
	}
	if !session.Answers.Has(question.Field) {
		return interview.Session{}, interview.InvalidInput("question %s has not been answered yet", id)
	}

	parsed, err := ParseValue(question.Field, value)
	if err != nil {
		return interview.Session{}, &interview.InvalidInputError{Reason: err.Error()}
	}

	updated := session.Clone()
	updated.Answers[question.Field] = parsed
	if updated.Complete {
		updated.Complete = false
		updated.FinalResult = nil
		updated.CurrentQuestion = interview.LastQuestion
	}

	log.Printf("[interview] session=%s revised %s", session.SessionID, id)
	return updated, nil
}

// ParseValue converts a typed-in answer to the field's value domain.
func ParseValue(field interview.Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	var value any
	switch field.Kind() {
	case interview.KindInteger:
		age, err := interview.ParseAge(raw)
		if err != nil {
			return nil, err
		}
		value = age
	case interview.KindRisk:
		level, err := interview.ParseRiskLevel(raw)
		if err != nil {
			return nil, err
		}
		value = level
	case interview.KindHorizon:
		horizon, err := interview.ParseHorizon(raw)
		if err != nil {
			return nil, err
		}
		value = horizon
	default:
		if raw == "" {
			return nil, fmt.Errorf("%s must not be empty", field)
		}
		value = raw
	}
	if err := interview.ValidateField(field, value); err != nil {
		return nil, err
	}
	return value, nil
}

// mergeCurrentField takes only the current question's field from the interpreter output,
// after checking that everything else was carried forward untouched.
func mergeCurrentField(current interview.QuestionID, previous, proposed interview.AnswerSet) (interview.AnswerSet, error) {
	question, _ := interview.Lookup(current)

	if err := checkCarryForward(previous, proposed, question.Field); err != nil {
		return nil, err
	}
	if extra := proposed.Beyond(current); len(extra) > 0 {
		return nil, &interview.ProtocolError{Reason: fmt.Sprintf("answers filled unasked fields %v", extra)}
	}

	value, ok := proposed[question.Field]
	if !ok {
		return nil, &interview.ProtocolError{Reason: fmt.Sprintf("answer for %s (%s) missing", current, question.Field)}
	}
	if err := interview.ValidateField(question.Field, value); err != nil {
		return nil, &interview.ProtocolError{Reason: fmt.Sprintf("answer for %s out of domain", current), Err: err}
	}

	merged := previous.Clone()
	merged[question.Field] = value
	return merged, nil
}

func checkCarryForward(previous, proposed interview.AnswerSet, current interview.Field) error {
	for field, value := range previous {
		if field == current {
			continue
		}
		got, ok := proposed[field]
		if !ok {
			return &interview.ProtocolError{Reason: fmt.Sprintf("answer %s was dropped", field)}
		}
		if got != value {
			return &interview.ProtocolError{Reason: fmt.Sprintf("answer %s was changed", field)}
		}
	}
	return nil
}

func nextQuestionResponse(q interview.Question, speak, hint string, answers interview.AnswerSet) interview.NextQuestion {
	if strings.TrimSpace(speak) == "" {
		speak = q.Text
	}
	if strings.TrimSpace(hint) == "" {
		hint = q.Hint
	}
	return interview.NextQuestion{
		Type:           interview.TypeNextQuestion,
		QuestionID:     q.ID,
		QuestionText:   q.Text,
		SpeakText:      speak,
		ValidationHint: hint,
		UpdatedAnswers: answers.Clone(),
	}
}

func classify(err error) string {
	var (
		invalid  *interview.InvalidInputError
		failure  *interview.InterpreterFailure
		protocol *interview.ProtocolError
	)
	switch {
	case errors.As(err, &invalid):
		return ResultInvalidInput
	case errors.As(err, &failure):
		return ResultInterpreterFailure
	case errors.As(err, &protocol):
		return ResultProtocolError
	default:
		return ResultProtocolError
	}
}

func (e *Engine) logFailure(session interview.Session, err error) error {
	var protocol *interview.ProtocolError
	var validation *interview.ValidationError
	if errors.As(err, &protocol) || errors.As(err, &validation) {
		log.Printf("[interview] protocol violation session=%s question=%s: %v", session.SessionID, session.CurrentQuestion, err)
	}
	return err
}
