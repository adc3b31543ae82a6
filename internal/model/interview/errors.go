package interview

import (
	"fmt"
	"strings"
)

// InvalidInputError means the caller sent a structurally invalid turn. Not retried.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// InvalidInput builds an *InvalidInputError from a format string.
func InvalidInput(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// InterpreterFailure means the interpretation call failed at the transport level or
// returned unusable output on every attempt. The turn is not committed and the user may
// resubmit the same utterance.
type InterpreterFailure struct {
	Attempts int
	Err      error
}

func (e *InterpreterFailure) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("interpreter failure after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("interpreter failure: %v", e.Err)
}

func (e *InterpreterFailure) Unwrap() error { return e.Err }

// ProtocolError means the interpreter returned well-formed output that breaks the turn
// rules. It indicates an integration bug; repeating the same action will not help.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol violation: %s: %v", e.Reason, e.Err)
	}
	return "protocol violation: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// FieldProblem names one out-of-domain field.
type FieldProblem struct {
	Field  Field  `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists missing and out-of-domain fields of an answer set that was
// expected to be complete.
type ValidationError struct {
	Missing []Field        `json:"missing,omitempty"`
	Invalid []FieldProblem `json:"invalid,omitempty"`
}

// HasProblems reports whether anything was recorded.
func (e *ValidationError) HasProblems() bool {
	return len(e.Missing) > 0 || len(e.Invalid) > 0
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			names[i] = string(f)
		}
		parts = append(parts, "missing "+strings.Join(names, ", "))
	}
	for _, p := range e.Invalid {
		parts = append(parts, p.Reason)
	}
	return "answers incomplete: " + strings.Join(parts, "; ")
}
