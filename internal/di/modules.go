package di

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sql-research-assistant/config"
	"sql-research-assistant/internal/apis/handlers"
	"sql-research-assistant/internal/constants"
	"sql-research-assistant/internal/observability"
	"sql-research-assistant/internal/repositories"
	"sql-research-assistant/internal/services"
	"sql-research-assistant/internal/utils"
	"sql-research-assistant/pkg/dbmanager"
	"sql-research-assistant/pkg/llm"
	"sql-research-assistant/pkg/mongodb"
	"sql-research-assistant/pkg/redis"

	"go.uber.org/dig"
	"go.uber.org/zap"
)

const serviceName = "sql-research-assistant"

// Closers collects the shutdown hooks of every opened resource, in opening order.
type Closers struct {
	mu  sync.Mutex
	fns []func(context.Context) error
}

func (c *Closers) add(fn func(context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fn)
}

// Close runs the hooks in reverse opening order.
func (c *Closers) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for i := len(c.fns) - 1; i >= 0; i-- {
		errs = append(errs, c.fns[i](ctx))
	}
	c.fns = nil
	return errors.Join(errs...)
}

// Initialize builds the container and eagerly resolves the database and LLM
// clients so configuration errors surface at startup.
func Initialize(ctx context.Context, env *config.Environment, logger *zap.Logger) (*dig.Container, *Closers, error) {
	container := dig.New()
	closers := &Closers{}

	providers := []struct {
		name        string
		constructor interface{}
	}{
		{"environment", func() *config.Environment { return env }},
		{"logger", func() *zap.Logger { return logger }},
		{"observability", func() (*observability.Observability, error) {
			obs, err := observability.New(serviceName, env.TracingJaegerEndpoint, logger)
			if err != nil {
				return nil, err
			}
			closers.add(obs.Shutdown)
			return obs, nil
		}},
		{"DB manager", func() (*dbmanager.Manager, error) {
			manager, err := dbmanager.Connect(ctx, connectionConfig(env), dbmanager.SchemaOptions{
				SampleRows:    env.SchemaSampleRows,
				IncludeTables: env.SchemaIncludeTables,
			}, logger)
			if err != nil {
				return nil, err
			}
			closers.add(func(context.Context) error { return manager.Close() })
			return manager, nil
		}},
		{"LLM manager", func() (*llm.Manager, error) {
			manager, err := newLLMManager(env)
			if err != nil {
				return nil, err
			}
			closers.add(func(context.Context) error { return manager.Close() })
			return manager, nil
		}},
		{"memory repository", func() (repositories.MemoryRepository, error) {
			return newMemoryRepository(ctx, env, logger, closers)
		}},
		{"transcript repository", func() (repositories.TranscriptRepository, error) {
			return newTranscriptRepository(ctx, env, logger, closers)
		}},
		{"JWT service", func() utils.JWTService {
			return utils.NewJWTService(env.SessionSecret, env.SessionTTL)
		}},
		{"pipeline", func(db *dbmanager.Manager, llmManager *llm.Manager, obs *observability.Observability) (*services.Pipeline, error) {
			sqlClient, err := llmManager.GetClient(constants.StageSQL)
			if err != nil {
				return nil, err
			}
			answerClient, err := llmManager.GetClient(constants.StageAnswer)
			if err != nil {
				return nil, err
			}
			return services.NewPipeline(db, db, sqlClient, answerClient, obs, logger), nil
		}},
		{"assistant service", func(
			pipeline *services.Pipeline,
			db *dbmanager.Manager,
			llmManager *llm.Manager,
			memory repositories.MemoryRepository,
			transcripts repositories.TranscriptRepository,
			obs *observability.Observability,
		) (services.AssistantService, error) {
			sqlClient, err := llmManager.GetClient(constants.StageSQL)
			if err != nil {
				return nil, err
			}
			return services.NewAssistantService(pipeline, db, memory, transcripts, obs, services.AssistantServiceConfig{
				Timeout:   env.PipelineTimeout,
				LLMClient: env.DefaultLLMClient,
				ModelInfo: sqlClient.GetModelInfo(),
			}, logger), nil
		}},
		{"session service", services.NewSessionService},
		{"assistant handler", handlers.NewAssistantHandler},
		{"session handler", handlers.NewSessionHandler},
	}

	for _, p := range providers {
		if err := container.Provide(p.constructor); err != nil {
			return nil, closers, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	if err := container.Invoke(func(*dbmanager.Manager, *llm.Manager, services.AssistantService) {}); err != nil {
		return nil, closers, fmt.Errorf("failed to initialize dependencies: %w", dig.RootCause(err))
	}

	return container, closers, nil
}

func connectionConfig(env *config.Environment) dbmanager.ConnectionConfig {
	return dbmanager.ConnectionConfig{
		Type:     env.DatabaseType,
		Path:     env.DatabasePath,
		Host:     env.DatabaseHost,
		Port:     utils.OptionalStringPtr(env.DatabasePort),
		Username: utils.OptionalStringPtr(env.DatabaseUsername),
		Password: utils.OptionalStringPtr(env.DatabasePassword),
		Database: env.DatabaseName,
		ReadOnly: env.DatabaseReadOnly,
	}
}

// newLLMManager registers one client per pipeline stage for the selected provider.
func newLLMManager(env *config.Environment) (*llm.Manager, error) {
	manager := llm.NewManager()

	var sqlConfig, answerConfig llm.Config
	switch env.DefaultLLMClient {
	case constants.OpenAI:
		sqlConfig = llm.Config{
			Provider:            constants.OpenAI,
			Model:               env.OpenAIModel,
			APIKey:              env.OpenAIAPIKey,
			BaseURL:             env.OpenAIBaseURL,
			MaxCompletionTokens: env.OpenAIMaxCompletionTokens,
			Temperature:         env.OpenAITemperature,
		}
		answerConfig = sqlConfig
		answerConfig.Model = env.OpenAIAnswerModel
		answerConfig.Temperature = env.OpenAIAnswerTemperature
	case constants.Gemini:
		sqlConfig = llm.Config{
			Provider:            constants.Gemini,
			Model:               env.GeminiModel,
			APIKey:              env.GeminiAPIKey,
			MaxCompletionTokens: env.GeminiMaxCompletionTokens,
			Temperature:         env.GeminiTemperature,
		}
		answerConfig = sqlConfig
		answerConfig.Model = env.GeminiAnswerModel
		answerConfig.Temperature = env.GeminiAnswerTemperature
	default:
		return nil, fmt.Errorf("unsupported LLM client: %s", env.DefaultLLMClient)
	}

	if err := manager.RegisterClient(constants.StageSQL, sqlConfig); err != nil {
		return nil, fmt.Errorf("failed to register %s stage client: %w", constants.StageSQL, err)
	}
	if err := manager.RegisterClient(constants.StageAnswer, answerConfig); err != nil {
		manager.Close()
		return nil, fmt.Errorf("failed to register %s stage client: %w", constants.StageAnswer, err)
	}
	return manager, nil
}

func newMemoryRepository(ctx context.Context, env *config.Environment, logger *zap.Logger, closers *Closers) (repositories.MemoryRepository, error) {
	if !env.MemoryEnabled {
		logger.Info("conversation memory disabled")
		return nil, nil
	}
	if !env.RedisEnabled() {
		logger.Info("conversation memory kept in process", zap.Int("max_turns", env.MemoryMaxTurns))
		return repositories.NewInMemoryRepository(env.MemoryMaxTurns, env.MemoryTTL), nil
	}

	client, err := redis.RedisClient(ctx, env.RedisHost, env.RedisPort, env.RedisUsername, env.RedisPassword, logger)
	if err != nil {
		return nil, err
	}
	closers.add(func(context.Context) error { return client.Close() })

	return repositories.NewRedisMemoryRepository(redis.NewListRepository(client), env.MemoryMaxTurns, env.MemoryTTL, logger), nil
}

func newTranscriptRepository(ctx context.Context, env *config.Environment, logger *zap.Logger, closers *Closers) (repositories.TranscriptRepository, error) {
	if !env.TranscriptsEnabled() {
		return nil, nil
	}

	mongoClient, err := mongodb.InitializeDatabaseConnection(ctx, mongodb.MongoDbConfigModel{
		ConnectionUrl: env.TranscriptMongoURI,
		DatabaseName:  env.TranscriptMongoName,
	}, logger)
	if err != nil {
		return nil, err
	}
	closers.add(mongoClient.Close)

	return repositories.NewTranscriptRepository(mongoClient), nil
}
