package workitem

import "errors"

var (
	// ErrNotFound is returned when a work item does not exist or belongs to another session
	ErrNotFound = errors.New("work item not found")
	// ErrSessionNotFound is returned when the parent session of a new work item does not exist
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidWorkItem wraps request validation failures
	ErrInvalidWorkItem = errors.New("invalid work item")
)
