package interview

import (
	"errors"
	"log"
	"net/http"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
	"github.com/zhouzirui/investor-interview/backend/pkg/utils"
)

// Error codes returned in the "code" field of error responses.
const (
	CodeInvalidInput           = "invalid_input"
	CodeInterpreterUnavailable = "interpreter_unavailable"
	CodeProtocolError          = "protocol_error"
	CodeValidationFailed       = "validation_failed"
	CodeSessionBusy            = "session_busy"
	CodeInternal               = "internal_error"
)

const (
	messageInterpreterUnavailable = "The interviewer is temporarily unavailable. Please try again."
	messageProtocol               = "The interview could not continue because of an internal error."
	messageBusy                   = "A previous answer for this session is still being processed."
)

type errorMapping struct {
	status    int
	code      string
	message   string
	retryable bool
}

// mapError decides the status and user guidance for an engine error. Retryable
// interpreter failures and non-retryable protocol errors never share guidance.
func mapError(err error) errorMapping {
	var (
		invalid    *interview.InvalidInputError
		failure    *interview.InterpreterFailure
		protocol   *interview.ProtocolError
		validation *interview.ValidationError
	)

	switch {
	case errors.As(err, &invalid):
		return errorMapping{http.StatusBadRequest, CodeInvalidInput, invalid.Error(), false}
	case errors.As(err, &failure):
		return errorMapping{http.StatusServiceUnavailable, CodeInterpreterUnavailable, messageInterpreterUnavailable, true}
	case errors.As(err, &protocol):
		log.Printf("[interview] protocol violation reached boundary: %v", err)
		return errorMapping{http.StatusBadGateway, CodeProtocolError, messageProtocol, false}
	case errors.As(err, &validation):
		log.Printf("[interview] protocol violation reached boundary (validation): %v", err)
		return errorMapping{http.StatusInternalServerError, CodeValidationFailed, messageProtocol, false}
	default:
		log.Printf("[interview] unexpected error: %v", err)
		return errorMapping{http.StatusInternalServerError, CodeInternal, "internal server error", false}
	}
}

func respondEngineError(w http.ResponseWriter, err error) {
	m := mapError(err)
	utils.RespondErrorCode(w, m.status, m.code, m.message, m.retryable)
}

func respondBusy(w http.ResponseWriter) {
	utils.RespondErrorCode(w, http.StatusConflict, CodeSessionBusy, messageBusy, true)
}
