package services

import (
	"context"
	"errors"
	"net/http"

	"sql-research-assistant/pkg/llm"
)

var (
	ErrEmptyQuestion     = errors.New("question must not be empty")
	ErrSchemaUnavailable = errors.New("schema unavailable")
	ErrCompletionFailed  = errors.New("completion failed")
	ErrEmptyCompletion   = llm.ErrEmptyCompletion
	ErrQueryExecution    = errors.New("query execution failed")
)

// Outcome labels recorded per answered or failed question.
const (
	OutcomeAnswered          = "answered"
	OutcomeEmptyQuestion     = "empty_question"
	OutcomeTimeout           = "timeout"
	OutcomeCanceled          = "canceled"
	OutcomeQueryFailed       = "query_failed"
	OutcomeCompletionFailed  = "completion_failed"
	OutcomeSchemaUnavailable = "schema_unavailable"
	OutcomeError             = "error"
)

// StatusForError maps a pipeline failure onto the HTTP status returned to callers.
func StatusForError(err error) uint32 {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusInternalServerError
	case errors.Is(err, ErrQueryExecution):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrCompletionFailed), errors.Is(err, ErrEmptyCompletion):
		return http.StatusBadGateway
	case errors.Is(err, ErrSchemaUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// OutcomeForError labels a pipeline result for metrics.
func OutcomeForError(err error) string {
	switch {
	case err == nil:
		return OutcomeAnswered
	case errors.Is(err, ErrEmptyQuestion):
		return OutcomeEmptyQuestion
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	case errors.Is(err, ErrQueryExecution):
		return OutcomeQueryFailed
	case errors.Is(err, ErrCompletionFailed), errors.Is(err, ErrEmptyCompletion):
		return OutcomeCompletionFailed
	case errors.Is(err, ErrSchemaUnavailable):
		return OutcomeSchemaUnavailable
	default:
		return OutcomeError
	}
}
