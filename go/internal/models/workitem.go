package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkItem is a story or task estimated inside a session.
type WorkItem struct {
	ID           uuid.UUID `json:"id"`
	SessionToken string    `json:"sessionToken"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Link         *string   `json:"link,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Score        *float64  `json:"score"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
