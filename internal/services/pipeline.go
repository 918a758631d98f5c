package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"sql-research-assistant/internal/constants"
	"sql-research-assistant/internal/models"
	"sql-research-assistant/pkg/llm"

	"go.uber.org/zap"
)

// SchemaProvider describes the current database schema.
type SchemaProvider interface {
	DescribeSchema(ctx context.Context) (string, error)
}

// QueryRunner executes a query and renders its rows as text.
type QueryRunner interface {
	Run(ctx context.Context, query string) (string, error)
}

// StageObserver wraps every pipeline stage, typically with a span and metrics.
type StageObserver interface {
	ObserveStage(ctx context.Context, stage string) (context.Context, func(error))
}

const (
	stageSchema  = "schema"
	stageExecute = "execute"
)

// PipelineResult holds everything produced while answering one question.
type PipelineResult struct {
	Question string
	Query    string
	Result   string
	Answer   string
	Output   string
}

// Pipeline turns a question into SQL, runs it and phrases the result.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	schema       SchemaProvider
	runner       QueryRunner
	sqlClient    llm.Client
	answerClient llm.Client
	observer     StageObserver
	logger       *zap.Logger
}

func NewPipeline(
	schema SchemaProvider,
	runner QueryRunner,
	sqlClient llm.Client,
	answerClient llm.Client,
	observer StageObserver,
	logger *zap.Logger,
) *Pipeline {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Pipeline{
		schema:       schema,
		runner:       runner,
		sqlClient:    sqlClient,
		answerClient: answerClient,
		observer:     observer,
		logger:       logger.Named("pipeline"),
	}
}

// Answer runs both stages for question. history, oldest first, is replayed to
// the model in both stages.
func (p *Pipeline) Answer(ctx context.Context, question string, history []models.Exchange) (*PipelineResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	schema, err := p.describeSchema(ctx)
	if err != nil {
		return nil, err
	}

	query, err := p.GenerateQuery(ctx, question, schema, history)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("generated query", zap.String("query", query))

	result, err := p.execute(ctx, query)
	if err != nil {
		return nil, err
	}

	// Schema is described again for the answer stage.
	schema, err = p.describeSchema(ctx)
	if err != nil {
		return nil, err
	}

	answer, err := p.GenerateAnswer(ctx, question, schema, query, result, history)
	if err != nil {
		return nil, err
	}

	return &PipelineResult{
		Question: question,
		Query:    query,
		Result:   result,
		Answer:   answer,
		Output:   fmt.Sprintf(constants.AnswerFormat, question, answer),
	}, nil
}

// GenerateQuery runs the SQL-generation stage and returns the extracted query.
func (p *Pipeline) GenerateQuery(ctx context.Context, question, schema string, history []models.Exchange) (query string, err error) {
	ctx, done := p.observer.ObserveStage(ctx, constants.StageSQL)
	defer func() { done(err) }()

	prompt := strings.NewReplacer(
		"{schema}", schema,
		"{question}", question,
	).Replace(constants.SQLGenerationPrompt)

	completion, err := p.sqlClient.Complete(ctx, llm.CompletionRequest{
		Messages: buildMessages(constants.SQLGenerationSystemPrompt, history, prompt),
		Stop:     []string{constants.SQLResultStopSequence},
	})
	if err != nil {
		return "", completionError(ctx, constants.StageSQL, err)
	}

	query = ExtractQuery(completion)
	if query == "" {
		return "", fmt.Errorf("%s stage: %w", constants.StageSQL, ErrEmptyCompletion)
	}
	return query, nil
}

// GenerateAnswer runs the answer stage.
func (p *Pipeline) GenerateAnswer(ctx context.Context, question, schema, query, result string, history []models.Exchange) (answer string, err error) {
	ctx, done := p.observer.ObserveStage(ctx, constants.StageAnswer)
	defer func() { done(err) }()

	prompt := strings.NewReplacer(
		"{schema}", schema,
		"{question}", question,
		"{query}", query,
		"{response}", result,
	).Replace(constants.AnswerPrompt)

	completion, err := p.answerClient.Complete(ctx, llm.CompletionRequest{
		Messages: buildMessages(constants.AnswerSystemPrompt, history, prompt),
	})
	if err != nil {
		return "", completionError(ctx, constants.StageAnswer, err)
	}

	answer = strings.TrimSpace(completion)
	if answer == "" {
		return "", fmt.Errorf("%s stage: %w", constants.StageAnswer, ErrEmptyCompletion)
	}
	return answer, nil
}

// ExtractQuery keeps the text before the first blank line of a completion.
func ExtractQuery(completion string) string {
	completion = strings.TrimLeftFunc(completion, unicode.IsSpace)
	query, _, _ := strings.Cut(completion, "\n\n")
	return strings.TrimRightFunc(query, unicode.IsSpace)
}

func (p *Pipeline) describeSchema(ctx context.Context) (schema string, err error) {
	ctx, done := p.observer.ObserveStage(ctx, stageSchema)
	defer func() { done(err) }()

	schema, err = p.schema.DescribeSchema(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", ctxErr, err)
		}
		return "", fmt.Errorf("%w: %w", ErrSchemaUnavailable, err)
	}
	return schema, nil
}

func (p *Pipeline) execute(ctx context.Context, query string) (result string, err error) {
	ctx, done := p.observer.ObserveStage(ctx, stageExecute)
	defer func() { done(err) }()

	result, err = p.runner.Run(ctx, query)
	if err != nil {
		p.logger.Warn("generated query failed", zap.String("query", query), zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w: %w", ErrQueryExecution, ctxErr, err)
		}
		return "", fmt.Errorf("%w: %w", ErrQueryExecution, err)
	}
	return result, nil
}

func completionError(ctx context.Context, stage string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%s stage: %w: %w", stage, ctxErr, err)
	}
	if errors.Is(err, ErrEmptyCompletion) {
		return fmt.Errorf("%s stage: %w", stage, err)
	}
	return fmt.Errorf("%s stage: %w: %w", stage, ErrCompletionFailed, err)
}

// buildMessages places history between the system message and the prompt.
func buildMessages(system string, history []models.Exchange, prompt string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)*2+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, exchange := range history {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: exchange.Question},
			llm.Message{Role: llm.RoleAssistant, Content: exchange.Answer},
		)
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})
}

type noopObserver struct{}

func (noopObserver) ObserveStage(ctx context.Context, _ string) (context.Context, func(error)) {
	return ctx, func(error) {}
}
