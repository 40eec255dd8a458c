package testfixtures

import (
	"context"
	"sync"
)

// RoomRegistry is a settable stand-in for the transport room registry
type RoomRegistry struct {
	mu      sync.Mutex
	members map[string]int
	// Forgotten lists the tokens passed to Forget, in order
	Forgotten []string
	// BeforeReap, when set, runs at the start of ReapIfEmpty. Tests use it
	// to let a member join between the snapshot and the deletion.
	BeforeReap func(token string)
}

// NewRoomRegistry creates an empty registry
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{members: make(map[string]int)}
}

// Set records count members for token
func (r *RoomRegistry) Set(token string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[token] = count
}

func (r *RoomRegistry) RoomMembers() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.members))
	for token, count := range r.members {
		out[token] = count
	}
	return out
}

// ReapIfEmpty holds the registry lock, which stands in for the room lock,
// across the re-check and reap.
func (r *RoomRegistry) ReapIfEmpty(ctx context.Context, token string, reap func(ctx context.Context) error) (bool, error) {
	if r.BeforeReap != nil {
		r.BeforeReap(token)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[token] > 0 {
		return false, nil
	}
	if err := reap(ctx); err != nil {
		return false, err
	}
	r.forget(token)
	return true, nil
}

func (r *RoomRegistry) Forget(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forget(token)
}

func (r *RoomRegistry) forget(token string) {
	if r.members[token] == 0 {
		delete(r.members, token)
	}
	r.Forgotten = append(r.Forgotten, token)
}

// Has reports whether token is still registered
func (r *RoomRegistry) Has(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[token]
	return ok
}
