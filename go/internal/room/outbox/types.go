package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEventNotFound is returned when an event is missing or was already sent
var ErrEventNotFound = errors.New("outbox event not found or already sent")

// OutboxEvent is a room lifecycle event waiting to be published
type OutboxEvent struct {
	ID           uuid.UUID       `json:"id"`
	SessionToken string          `json:"session_token"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Publisher delivers outbox events downstream
type Publisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}
