package room

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Transition is the membership change caused by a register or deregister call
type Transition int

const (
	// PresenceUnchanged means the set of present users did not change
	PresenceUnchanged Transition = iota
	// PresenceJoined means the user opened their first connection to the room
	PresenceJoined
	// PresenceLeft means the user closed their last connection to the room
	PresenceLeft
)

func (t Transition) String() string {
	switch t {
	case PresenceJoined:
		return "joined"
	case PresenceLeft:
		return "left"
	default:
		return "unchanged"
	}
}

// DisplayData is what the transport knows about a user from the handshake
type DisplayData struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PresenceEntry is a snapshot of one present user
type PresenceEntry struct {
	UserID        string      `json:"userId"`
	ConnectionIDs []string    `json:"connectionIds"`
	Display       DisplayData `json:"display"`
	Since         time.Time   `json:"since"`
}

// Presence tracks, per room, which users are reachable and through which
// connections. A user with several connections is present until the last one
// goes away.
type Presence struct {
	mu    sync.Mutex
	rooms map[string]*presenceRoom
	clock clockwork.Clock
}

type presenceRoom struct {
	mu      sync.Mutex
	users   map[string]*presenceUser
	removed bool
}

type presenceUser struct {
	conns   map[string]struct{}
	display DisplayData
	since   time.Time
}

// NewPresence creates an empty presence tracker
func NewPresence(clock clockwork.Clock) *Presence {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Presence{
		rooms: make(map[string]*presenceRoom),
		clock: clock,
	}
}

// room returns the entry of token, creating it when create is set.
// The tracker lock is never held while a room lock is taken.
func (p *Presence) room(token string, create bool) *presenceRoom {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.rooms[token]
	if !ok && create {
		r = &presenceRoom{users: make(map[string]*presenceUser)}
		p.rooms[token] = r
	}
	return r
}

// Register adds connectionID to the connections of userID in the room
func (p *Presence) Register(token, userID, connectionID string, display DisplayData) Transition {
	for {
		r := p.room(token, true)
		r.mu.Lock()
		if r.removed {
			// purged or emptied between lookup and lock; pick up the fresh entry
			r.mu.Unlock()
			continue
		}

		transition := PresenceUnchanged
		u, ok := r.users[userID]
		if !ok {
			u = &presenceUser{conns: make(map[string]struct{}), since: p.clock.Now()}
			r.users[userID] = u
			transition = PresenceJoined
		}
		u.conns[connectionID] = struct{}{}
		if display != (DisplayData{}) {
			u.display = display
		}
		r.mu.Unlock()
		return transition
	}
}

// Deregister removes connectionID from the connections of userID in the room
func (p *Presence) Deregister(token, userID, connectionID string) Transition {
	r := p.room(token, false)
	if r == nil {
		return PresenceUnchanged
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed {
		return PresenceUnchanged
	}

	u, ok := r.users[userID]
	if !ok {
		return PresenceUnchanged
	}
	if _, ok := u.conns[connectionID]; !ok {
		return PresenceUnchanged
	}
	delete(u.conns, connectionID)
	if len(u.conns) > 0 {
		return PresenceUnchanged
	}

	delete(r.users, userID)
	if len(r.users) == 0 {
		r.removed = true
		p.mu.Lock()
		if p.rooms[token] == r {
			delete(p.rooms, token)
		}
		p.mu.Unlock()
	}
	return PresenceLeft
}

// IsPresent reports whether userID holds at least one connection to the room
func (p *Presence) IsPresent(token, userID string) bool {
	r := p.room(token, false)
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[userID]
	return ok && !r.removed
}

// ListPresent returns the sorted ids of the users present in the room
func (p *Presence) ListPresent(token string) []string {
	r := p.room(token, false)
	if r == nil {
		return []string{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.users))
	if r.removed {
		return ids
	}
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns a snapshot of every present user of the room, sorted by user id
func (p *Presence) Entries(token string) []PresenceEntry {
	r := p.room(token, false)
	if r == nil {
		return []PresenceEntry{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]PresenceEntry, 0, len(r.users))
	if r.removed {
		return entries
	}
	for id, u := range r.users {
		conns := make([]string, 0, len(u.conns))
		for c := range u.conns {
			conns = append(conns, c)
		}
		sort.Strings(conns)
		entries = append(entries, PresenceEntry{
			UserID:        id,
			ConnectionIDs: conns,
			Display:       u.display,
			Since:         u.since,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	return entries
}

// Purge drops every entry of the room
func (p *Presence) Purge(token string) {
	p.mu.Lock()
	r, ok := p.rooms[token]
	delete(p.rooms, token)
	p.mu.Unlock()
	if !ok {
		return
	}

	r.mu.Lock()
	r.removed = true
	r.users = make(map[string]*presenceUser)
	r.mu.Unlock()
}

// Rooms returns the number of rooms with at least one present user
func (p *Presence) Rooms() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rooms)
}
