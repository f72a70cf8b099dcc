package domain

import (
	"time"
)

// Expense represents a single spend record owned by a user.
type Expense struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Date          time.Time `json:"date"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Merchant      string    `json:"merchant,omitempty"`
	Description   string    `json:"description,omitempty"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ExpenseFilter narrows expense listings. Zero values mean "no constraint".
type ExpenseFilter struct {
	From       *time.Time
	To         *time.Time
	Categories []string
	Tags       []string
	Query      string
}
