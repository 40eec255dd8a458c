package events

import (
	"time"
)

// Outbox event types of the room lifecycle
const (
	EventTypeRoundRevealed      = "RoundRevealed"
	EventTypeRoundReset         = "RoundReset"
	EventTypeSessionClosed      = "SessionClosed"
	EventTypeSessionReopened    = "SessionReopened"
	EventTypeWorkItemSelected   = "WorkItemSelected"
	EventTypeWorkItemDeselected = "WorkItemDeselected"
	EventTypeSessionReaped      = "SessionReaped"
)

// SchemaVersion is the version of the payloads in this package
const SchemaVersion = 1

// Metadata travels with every outbox event next to its payload
type Metadata struct {
	SchemaVersion int    `json:"schema_version"`
	SourceNode    string `json:"source_node,omitempty"`
}

// RoundRevealedPayload is the payload for a RoundRevealed event
type RoundRevealedPayload struct {
	SessionToken string    `json:"session_token"`
	VoteCount    int       `json:"vote_count"`
	Participants int       `json:"participants"`
	RevealedAt   time.Time `json:"revealed_at"`
}

// RoundResetPayload is the payload for a RoundReset event
type RoundResetPayload struct {
	SessionToken string    `json:"session_token"`
	Participants int       `json:"participants"`
	ResetAt      time.Time `json:"reset_at"`
}

// SessionClosedPayload is the payload for a SessionClosed event
type SessionClosedPayload struct {
	SessionToken string    `json:"session_token"`
	ClosedAt     time.Time `json:"closed_at"`
}

// SessionReopenedPayload is the payload for a SessionReopened event
type SessionReopenedPayload struct {
	SessionToken string    `json:"session_token"`
	ReopenedAt   time.Time `json:"reopened_at"`
}

// WorkItemSelectedPayload is the payload for WorkItemSelected and WorkItemDeselected events.
// WorkItemID is empty on deselection.
type WorkItemSelectedPayload struct {
	SessionToken string    `json:"session_token"`
	WorkItemID   string    `json:"work_item_id,omitempty"`
	SelectedAt   time.Time `json:"selected_at"`
}

// SessionReapedPayload is the payload for a SessionReaped event
type SessionReapedPayload struct {
	SessionToken string    `json:"session_token"`
	ReapedAt     time.Time `json:"reaped_at"`
}
