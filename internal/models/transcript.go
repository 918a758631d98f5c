package models

// Transcript is the archived record of an answered exchange.
type Transcript struct {
	SessionID string `bson:"session_id,omitempty" json:"session_id,omitempty"`
	Question  string `bson:"question" json:"question"`
	Query     string `bson:"query" json:"query"`
	Result    string `bson:"result" json:"result"`
	Answer    string `bson:"answer" json:"answer"`
	Output    string `bson:"output" json:"output"`
	LLMClient string `bson:"llm_client" json:"llm_client"`
	Model     string `bson:"model" json:"model"`
	Base      `bson:",inline"`
}

func NewTranscript(sessionID string, exchange Exchange, output, llmClient, model string) *Transcript {
	transcript := &Transcript{
		SessionID: sessionID,
		Question:  exchange.Question,
		Query:     exchange.Query,
		Result:    exchange.Result,
		Answer:    exchange.Answer,
		Output:    output,
		LLMClient: llmClient,
		Model:     model,
		Base:      NewBase(),
	}
	if !exchange.CreatedAt.IsZero() {
		transcript.CreatedAt = exchange.CreatedAt
	}
	return transcript
}
