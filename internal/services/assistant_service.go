package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sql-research-assistant/internal/apis/dtos"
	"sql-research-assistant/internal/models"
	"sql-research-assistant/internal/repositories"
	"sql-research-assistant/pkg/llm"

	"go.uber.org/zap"
)

const transcriptPageSize = 50

var (
	ErrMemoryDisabled      = errors.New("conversation memory is disabled")
	ErrTranscriptsDisabled = errors.New("transcript archive is disabled")
)

// QuestionRecorder counts finished questions by outcome.
type QuestionRecorder interface {
	RecordQuestion(outcome string)
}

type AssistantService interface {
	Ask(ctx context.Context, sessionID *string, question string) (*dtos.InvokeResponse, uint32, error)
	Schema(ctx context.Context) (*dtos.SchemaResponse, uint32, error)
	History(ctx context.Context, sessionID string) (*dtos.HistoryResponse, uint32, error)
	ClearHistory(ctx context.Context, sessionID string) (uint32, error)
	Transcripts(ctx context.Context, sessionID string) (*dtos.TranscriptsResponse, uint32, error)
}

type AssistantServiceConfig struct {
	Timeout   time.Duration
	LLMClient string
	ModelInfo llm.ModelInfo
}

type assistantService struct {
	pipeline    *Pipeline
	schema      SchemaProvider
	memory      repositories.MemoryRepository
	transcripts repositories.TranscriptRepository
	recorder    QuestionRecorder
	config      AssistantServiceConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssistantService wires the pipeline to the optional memory and transcript
// stores. A nil memory or transcripts repository disables that feature.
func NewAssistantService(
	pipeline *Pipeline,
	schema SchemaProvider,
	memory repositories.MemoryRepository,
	transcripts repositories.TranscriptRepository,
	recorder QuestionRecorder,
	config AssistantServiceConfig,
	logger *zap.Logger,
) AssistantService {
	return &assistantService{
		pipeline:    pipeline,
		schema:      schema,
		memory:      memory,
		transcripts: transcripts,
		recorder:    recorder,
		config:      config,
		logger:      logger.Named("assistant"),
		now:         time.Now,
	}
}

func (s *assistantService) Ask(ctx context.Context, sessionID *string, question string) (*dtos.InvokeResponse, uint32, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	history := s.loadHistory(ctx, sessionID)

	result, err := s.pipeline.Answer(ctx, question, history)
	if s.recorder != nil {
		s.recorder.RecordQuestion(OutcomeForError(err))
	}
	if err != nil {
		s.logger.Warn("failed to answer question",
			zap.String("question", question),
			zap.Error(err),
		)
		return nil, StatusForError(err), err
	}

	exchange := models.Exchange{
		Question:  result.Question,
		Query:     result.Query,
		Result:    result.Result,
		Answer:    result.Answer,
		CreatedAt: s.now().UTC(),
	}
	// Bookkeeping outlives the request context.
	bookkeepingCtx := context.WithoutCancel(ctx)
	s.remember(bookkeepingCtx, sessionID, exchange)
	s.archive(bookkeepingCtx, sessionID, exchange, result.Output)

	response := &dtos.InvokeResponse{
		Output:   result.Output,
		Question: result.Question,
		Answer:   result.Answer,
		Query:    result.Query,
		Result:   result.Result,
	}
	if sessionID != nil {
		response.SessionID = *sessionID
	}
	return response, http.StatusOK, nil
}

func (s *assistantService) Schema(ctx context.Context) (*dtos.SchemaResponse, uint32, error) {
	schema, err := s.schema.DescribeSchema(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		} else {
			err = fmt.Errorf("%w: %w", ErrSchemaUnavailable, err)
		}
		return nil, StatusForError(err), err
	}
	return &dtos.SchemaResponse{Schema: schema}, http.StatusOK, nil
}

func (s *assistantService) History(ctx context.Context, sessionID string) (*dtos.HistoryResponse, uint32, error) {
	if s.memory == nil {
		return nil, http.StatusNotFound, ErrMemoryDisabled
	}

	exchanges, err := s.memory.Recent(ctx, sessionID)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to load history: %w", err)
	}

	response := &dtos.HistoryResponse{
		SessionID: sessionID,
		Exchanges: make([]dtos.ExchangeResponse, 0, len(exchanges)),
	}
	for _, exchange := range exchanges {
		response.Exchanges = append(response.Exchanges, dtos.ExchangeResponse{
			Question:  exchange.Question,
			Query:     exchange.Query,
			Result:    exchange.Result,
			Answer:    exchange.Answer,
			CreatedAt: exchange.CreatedAt,
		})
	}
	return response, http.StatusOK, nil
}

func (s *assistantService) ClearHistory(ctx context.Context, sessionID string) (uint32, error) {
	if s.memory == nil {
		return http.StatusNotFound, ErrMemoryDisabled
	}
	if err := s.memory.Clear(ctx, sessionID); err != nil {
		return http.StatusInternalServerError, fmt.Errorf("failed to clear history: %w", err)
	}
	return http.StatusOK, nil
}

func (s *assistantService) Transcripts(ctx context.Context, sessionID string) (*dtos.TranscriptsResponse, uint32, error) {
	if s.transcripts == nil {
		return nil, http.StatusNotFound, ErrTranscriptsDisabled
	}

	transcripts, err := s.transcripts.FindBySession(ctx, sessionID, transcriptPageSize)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	response := &dtos.TranscriptsResponse{
		SessionID:   sessionID,
		Transcripts: make([]dtos.TranscriptResponse, 0, len(transcripts)),
	}
	for _, transcript := range transcripts {
		response.Transcripts = append(response.Transcripts, dtos.TranscriptResponse{
			ID:        transcript.ID.Hex(),
			Question:  transcript.Question,
			Query:     transcript.Query,
			Answer:    transcript.Answer,
			Model:     transcript.Model,
			CreatedAt: transcript.CreatedAt,
		})
	}
	return response, http.StatusOK, nil
}

func (s *assistantService) loadHistory(ctx context.Context, sessionID *string) []models.Exchange {
	if s.memory == nil || sessionID == nil {
		return nil
	}

	history, err := s.memory.Recent(ctx, *sessionID)
	if err != nil {
		s.logger.Warn("failed to load history, answering without it",
			zap.String("session_id", *sessionID),
			zap.Error(err),
		)
		return nil
	}
	return history
}

func (s *assistantService) remember(ctx context.Context, sessionID *string, exchange models.Exchange) {
	if s.memory == nil || sessionID == nil {
		return
	}
	if err := s.memory.Append(ctx, *sessionID, exchange); err != nil {
		s.logger.Error("failed to append exchange to memory",
			zap.String("session_id", *sessionID),
			zap.Error(err),
		)
	}
}

func (s *assistantService) archive(ctx context.Context, sessionID *string, exchange models.Exchange, output string) {
	if s.transcripts == nil {
		return
	}

	var id string
	if sessionID != nil {
		id = *sessionID
	}
	transcript := models.NewTranscript(id, exchange, output, s.config.LLMClient, s.config.ModelInfo.Name)
	if err := s.transcripts.Create(ctx, transcript); err != nil {
		s.logger.Error("failed to archive transcript",
			zap.String("session_id", id),
			zap.Error(err),
		)
	}
}
