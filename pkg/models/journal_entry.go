package models

import "time"

// JournalEntry is one recorded answer to a reflection prompt
type JournalEntry struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	PromptCategory Category  `json:"prompt_category" db:"prompt_category"`
	PromptText     string    `json:"prompt_text" db:"prompt_text"`
	Response       string    `json:"response" db:"response"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
