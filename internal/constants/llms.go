package constants

const (
	OpenAI = "openai"
	Gemini = "gemini"
)

// Pipeline stages. Each stage gets its own registered LLM client.
const (
	StageSQL    = "sql"
	StageAnswer = "answer"
)

const (
	OpenAIModel               = "gpt-4o-mini"
	OpenAIMaxCompletionTokens = 1024

	GeminiModel               = "gemini-1.5-flash"
	GeminiMaxCompletionTokens = 1024

	// SQL generation runs deterministic, the answer stage keeps the chat default.
	SQLStageTemperature    = 0.0
	AnswerStageTemperature = 0.7
)

const DefaultMemoryMaxTurns = 10
