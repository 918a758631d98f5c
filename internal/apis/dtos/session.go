package dtos

import "time"

type SessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ExchangeResponse struct {
	Question  string    `json:"question"`
	Query     string    `json:"query"`
	Result    string    `json:"result"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryResponse struct {
	SessionID string             `json:"session_id"`
	Exchanges []ExchangeResponse `json:"exchanges"`
}

type TranscriptResponse struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

type TranscriptsResponse struct {
	SessionID   string               `json:"session_id"`
	Transcripts []TranscriptResponse `json:"transcripts"`
}
