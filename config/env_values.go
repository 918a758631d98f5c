package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"sql-research-assistant/internal/constants"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Environment struct {
	// Server configs
	IsDocker          bool
	Port              string
	Environment       string
	CorsAllowedOrigin string
	LogLevel          string
	LogFormat         string
	PipelineTimeout   time.Duration

	// Database configs
	DatabaseType        string
	DatabasePath        string
	DatabaseHost        string
	DatabasePort        string
	DatabaseName        string
	DatabaseUsername    string
	DatabasePassword    string
	DatabaseReadOnly    bool
	SchemaSampleRows    int
	SchemaIncludeTables []string

	// LLM configs
	DefaultLLMClient string

	// OpenAI configs
	OpenAIAPIKey              string
	OpenAIBaseURL             string
	OpenAIModel               string
	OpenAIAnswerModel         string
	OpenAIMaxCompletionTokens int
	OpenAITemperature         float64
	OpenAIAnswerTemperature   float64

	// Gemini configs
	GeminiAPIKey              string
	GeminiModel               string
	GeminiAnswerModel         string
	GeminiMaxCompletionTokens int
	GeminiTemperature         float64
	GeminiAnswerTemperature   float64

	// Memory configs
	MemoryEnabled  bool
	MemoryMaxTurns int
	MemoryTTL      time.Duration

	// Redis configs
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string

	// Session configs
	SessionSecret string
	SessionTTL    time.Duration

	// Transcript archive configs
	TranscriptMongoURI  string
	TranscriptMongoName string

	// Tracing configs
	TracingJaegerEndpoint string
}

// LoadEnv loads environment variables from .env file if present,
// applies defaults and validates the result.
func LoadEnv() (*Environment, error) {
	// Load .env file only if not running in Docker
	if os.Getenv("IS_DOCKER") != "true" {
		if err := godotenv.Load(); err != nil {
			fmt.Printf("Warning: .env file not found: %v\n", err)
		}
	}

	return Load(newViper())
}

// Load builds the Environment from an already populated viper instance.
func Load(v *viper.Viper) (*Environment, error) {
	env := &Environment{}
	env.IsDocker = v.GetBool("IS_DOCKER")

	// Server configs
	env.Port = v.GetString("PORT")
	env.Environment = v.GetString("ENVIRONMENT")
	env.CorsAllowedOrigin = v.GetString("CORS_ALLOWED_ORIGIN")
	env.LogLevel = v.GetString("LOG_LEVEL")
	env.LogFormat = v.GetString("LOG_FORMAT")
	env.PipelineTimeout = v.GetDuration("PIPELINE_TIMEOUT")

	// Database configs
	env.DatabaseType = strings.ToLower(v.GetString("DATABASE_TYPE"))
	env.DatabasePath = v.GetString("DATABASE_PATH")
	env.DatabaseHost = v.GetString("DATABASE_HOST")
	env.DatabasePort = v.GetString("DATABASE_PORT")
	env.DatabaseName = v.GetString("DATABASE_NAME")
	env.DatabaseUsername = v.GetString("DATABASE_USERNAME")
	env.DatabasePassword = v.GetString("DATABASE_PASSWORD")
	env.DatabaseReadOnly = v.GetBool("DATABASE_READ_ONLY")
	env.SchemaSampleRows = v.GetInt("SCHEMA_SAMPLE_ROWS")
	env.SchemaIncludeTables = splitList(v.GetString("SCHEMA_INCLUDE_TABLES"))

	// LLM configs
	env.DefaultLLMClient = strings.ToLower(v.GetString("DEFAULT_LLM_CLIENT"))

	// OpenAI configs
	env.OpenAIAPIKey = v.GetString("OPENAI_API_KEY")
	env.OpenAIBaseURL = v.GetString("OPENAI_BASE_URL")
	env.OpenAIModel = v.GetString("OPENAI_MODEL")
	env.OpenAIAnswerModel = getWithFallback(v, "OPENAI_ANSWER_MODEL", env.OpenAIModel)
	env.OpenAIMaxCompletionTokens = v.GetInt("OPENAI_MAX_COMPLETION_TOKENS")
	env.OpenAITemperature = v.GetFloat64("OPENAI_TEMPERATURE")
	env.OpenAIAnswerTemperature = v.GetFloat64("OPENAI_ANSWER_TEMPERATURE")

	// Gemini configs
	env.GeminiAPIKey = v.GetString("GEMINI_API_KEY")
	env.GeminiModel = v.GetString("GEMINI_MODEL")
	env.GeminiAnswerModel = getWithFallback(v, "GEMINI_ANSWER_MODEL", env.GeminiModel)
	env.GeminiMaxCompletionTokens = v.GetInt("GEMINI_MAX_COMPLETION_TOKENS")
	env.GeminiTemperature = v.GetFloat64("GEMINI_TEMPERATURE")
	env.GeminiAnswerTemperature = v.GetFloat64("GEMINI_ANSWER_TEMPERATURE")

	// Memory configs
	env.MemoryEnabled = v.GetBool("MEMORY_ENABLED")
	env.MemoryMaxTurns = v.GetInt("MEMORY_MAX_TURNS")
	env.MemoryTTL = v.GetDuration("MEMORY_TTL")

	// Redis configs
	env.RedisHost = v.GetString("REDIS_HOST")
	env.RedisPort = v.GetString("REDIS_PORT")
	env.RedisUsername = v.GetString("REDIS_USERNAME")
	env.RedisPassword = v.GetString("REDIS_PASSWORD")

	// Session configs
	env.SessionSecret = v.GetString("SESSION_SECRET")
	env.SessionTTL = v.GetDuration("SESSION_TTL")

	// Transcript archive configs
	env.TranscriptMongoURI = v.GetString("TRANSCRIPT_MONGODB_URI")
	env.TranscriptMongoName = v.GetString("TRANSCRIPT_MONGODB_NAME")

	env.TracingJaegerEndpoint = v.GetString("TRACING_JAEGER_ENDPOINT")

	if err := validateConfig(env); err != nil {
		return nil, err
	}
	return env, nil
}

// RedisEnabled reports whether conversation memory should live in Redis.
func (e *Environment) RedisEnabled() bool {
	return e.RedisHost != ""
}

// TranscriptsEnabled reports whether answered exchanges are archived to MongoDB.
func (e *Environment) TranscriptsEnabled() bool {
	return e.TranscriptMongoURI != ""
}

// IsProduction reports whether the service runs in production mode.
func (e *Environment) IsProduction() bool {
	return strings.EqualFold(e.Environment, "PRODUCTION")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENVIRONMENT", "DEVELOPMENT")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("PIPELINE_TIMEOUT", 60*time.Second)

	v.SetDefault("DATABASE_TYPE", constants.DatabaseTypeSQLite)
	v.SetDefault("DATABASE_PATH", "retail.db")
	v.SetDefault("DATABASE_READ_ONLY", true)
	v.SetDefault("SCHEMA_SAMPLE_ROWS", constants.DefaultSampleRows)

	v.SetDefault("DEFAULT_LLM_CLIENT", constants.OpenAI)

	v.SetDefault("OPENAI_MODEL", constants.OpenAIModel)
	v.SetDefault("OPENAI_MAX_COMPLETION_TOKENS", constants.OpenAIMaxCompletionTokens)
	v.SetDefault("OPENAI_TEMPERATURE", constants.SQLStageTemperature)
	v.SetDefault("OPENAI_ANSWER_TEMPERATURE", constants.AnswerStageTemperature)

	v.SetDefault("GEMINI_MODEL", constants.GeminiModel)
	v.SetDefault("GEMINI_MAX_COMPLETION_TOKENS", constants.GeminiMaxCompletionTokens)
	v.SetDefault("GEMINI_TEMPERATURE", constants.SQLStageTemperature)
	v.SetDefault("GEMINI_ANSWER_TEMPERATURE", constants.AnswerStageTemperature)

	v.SetDefault("MEMORY_ENABLED", true)
	v.SetDefault("MEMORY_MAX_TURNS", constants.DefaultMemoryMaxTurns)
	v.SetDefault("MEMORY_TTL", 24*time.Hour)

	v.SetDefault("REDIS_PORT", "6379")

	v.SetDefault("SESSION_SECRET", defaultSessionSecret)
	v.SetDefault("SESSION_TTL", 24*time.Hour)

	v.SetDefault("TRANSCRIPT_MONGODB_NAME", "sql_research_assistant")
}

const defaultSessionSecret = "sql_research_assistant_session_secret"

func getWithFallback(v *viper.Viper, key, fallback string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validateConfig(env *Environment) error {
	switch env.DefaultLLMClient {
	case constants.OpenAI:
		if env.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when DEFAULT_LLM_CLIENT=%s", constants.OpenAI)
		}
	case constants.Gemini:
		if env.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when DEFAULT_LLM_CLIENT=%s", constants.Gemini)
		}
	default:
		return fmt.Errorf("unsupported DEFAULT_LLM_CLIENT: %s", env.DefaultLLMClient)
	}

	switch env.DatabaseType {
	case constants.DatabaseTypeSQLite:
		if env.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for %s", env.DatabaseType)
		}
	case constants.DatabaseTypePostgreSQL, constants.DatabaseTypeMySQL, constants.DatabaseTypeClickhouse:
		if env.DatabaseHost == "" || env.DatabaseName == "" {
			return fmt.Errorf("DATABASE_HOST and DATABASE_NAME are required for %s", env.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported DATABASE_TYPE: %s", env.DatabaseType)
	}

	if env.SchemaSampleRows < 0 {
		return fmt.Errorf("SCHEMA_SAMPLE_ROWS must not be negative, got: %d", env.SchemaSampleRows)
	}

	if env.MemoryMaxTurns <= 0 {
		return fmt.Errorf("MEMORY_MAX_TURNS must be positive, got: %d", env.MemoryMaxTurns)
	}

	if env.PipelineTimeout <= 0 {
		return fmt.Errorf("PIPELINE_TIMEOUT must be positive, got: %s", env.PipelineTimeout)
	}

	if env.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got: %s", env.SessionTTL)
	}

	if env.IsProduction() && env.SessionSecret == defaultSessionSecret {
		return fmt.Errorf("default SESSION_SECRET should not be used in production")
	}

	return nil
}
