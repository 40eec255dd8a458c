package room

import (
	"errors"

	"github.com/mcdev12/planning-poker/go/internal/workitem"
)

var (
	// ErrSessionNotFound is returned when no session exists for a room token
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned when a vote or reset targets a closed round
	ErrSessionClosed = errors.New("session is closed")
	// ErrWorkItemNotFound is returned when the selected work item does not exist in the session
	ErrWorkItemNotFound = workitem.ErrNotFound
	// ErrNotSessionOwner is returned when someone other than the owner closes or reopens a session
	ErrNotSessionOwner = errors.New("only the session owner can do this")
	// ErrInvalidGameType is returned for game types outside the supported decks
	ErrInvalidGameType = errors.New("invalid game type")
	// ErrInvalidSession wraps session creation validation failures
	ErrInvalidSession = errors.New("invalid session")
	// ErrTokenTaken is returned by the store when a generated token collides with an existing session
	ErrTokenTaken = errors.New("session token already taken")
)
