package dtos

type InvokeRequest struct {
	Question string `json:"question" binding:"required"`
}

type InvokeResponse struct {
	Output    string `json:"output"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Query     string `json:"query"`
	Result    string `json:"result"`
	SessionID string `json:"session_id,omitempty"`
}

type SchemaResponse struct {
	Schema string `json:"schema"`
}
