package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Inbound events
const (
	EventJoin             = "room/join"
	EventLeave            = "room/leave"
	EventVote             = "room/player/vote"
	EventReveal           = "room/reveal"
	EventGameTypeUpdate   = "room/game-type/update"
	EventRoundReset       = "room/round/reset"
	EventWorkItemSelect   = "room/work-item/select"
	EventWorkItemDeselect = "room/work-item/deselect"
	EventWorkItemScore    = "room/work-item/score"
)

// Outbound events
const (
	EventPlayers         = "room/players"
	EventInfo            = "room/info"
	EventRevealed        = "room/revealed"
	EventPlayerVoted     = "room/player/voted"
	EventWorkItemUpdated = "room/work-item/updated"
	EventError           = "error"
)

var errMalformedFrame = errors.New("malformed frame")

// Frame is one websocket message: a JSON array whose first element is the
// event name and whose remaining elements are the event arguments.
type Frame struct {
	Event string
	Args  []json.RawMessage
}

// EncodeFrame renders event and args as a JSON array
func EncodeFrame(event string, args ...any) ([]byte, error) {
	parts := make([]any, 0, len(args)+1)
	parts = append(parts, event)
	parts = append(parts, args...)
	data, err := json.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return data, nil
}

// DecodeFrame parses a websocket message into a Frame
func DecodeFrame(data []byte) (Frame, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", errMalformedFrame, err)
	}
	if len(parts) == 0 {
		return Frame{}, fmt.Errorf("%w: empty frame", errMalformedFrame)
	}
	var event string
	if err := json.Unmarshal(parts[0], &event); err != nil || event == "" {
		return Frame{}, fmt.Errorf("%w: first element must be the event name", errMalformedFrame)
	}
	return Frame{Event: event, Args: parts[1:]}, nil
}

// Arg decodes the i-th argument into v
func (f Frame) Arg(i int, v any) error {
	if i >= len(f.Args) {
		return fmt.Errorf("%w: %s expects at least %d arguments", errMalformedFrame, f.Event, i+1)
	}
	if err := json.Unmarshal(f.Args[i], v); err != nil {
		return fmt.Errorf("%w: argument %d of %s: %v", errMalformedFrame, i, f.Event, err)
	}
	return nil
}

// VoteValue is a card value. Clients send it as a string or a number;
// null takes the vote back. Set is false when the vote key was absent.
type VoteValue struct {
	Value *string
	Set   bool
}

func (v *VoteValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		v.Value, v.Set = nil, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.Value, v.Set = &s, true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("vote must be a string, a number or null")
	}
	s = n.String()
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	v.Value, v.Set = &s, true
	return nil
}

// JoinPayload is the argument of room/join and room/leave
type JoinPayload struct {
	RoomToken string `json:"roomToken"`
	UserID    string `json:"userId"`
}

// VotePayload is the argument of room/player/vote
type VotePayload struct {
	RoomToken string    `json:"roomToken"`
	Vote      VoteValue `json:"vote"`
}

// WorkItemPayload is the argument of room/work-item/select
type WorkItemPayload struct {
	RoomToken  string    `json:"roomToken"`
	WorkItemID uuid.UUID `json:"workItemId"`
}

// ScorePayload is the argument of room/work-item/score
type ScorePayload struct {
	RoomToken  string    `json:"roomToken"`
	WorkItemID uuid.UUID `json:"workItemId"`
	Score      *float64  `json:"score"`
}

// ErrorPayload is sent to the connection whose event failed
type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error codes carried by ErrorPayload
const (
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
	CodeSessionClosed    = "SESSION_CLOSED"
	CodeWorkItemNotFound = "WORK_ITEM_NOT_FOUND"
	CodeNotSessionOwner  = "NOT_SESSION_OWNER"
	CodeBadRequest       = "BAD_REQUEST"
	CodeNotInRoom        = "NOT_IN_ROOM"
	CodeIdentityMismatch = "IDENTITY_MISMATCH"
	CodeUnknownEvent     = "UNKNOWN_EVENT"
	CodeInternal         = "INTERNAL"
)
