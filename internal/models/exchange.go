package models

import "time"

// Exchange is one answered question as kept in conversation memory.
type Exchange struct {
	Question  string    `json:"question"`
	Query     string    `json:"query"`
	Result    string    `json:"result"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}
