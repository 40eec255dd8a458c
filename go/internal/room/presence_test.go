package room

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

func TestPresence_TwoConnectionsSameUser(t *testing.T) {
	p := NewPresence(clockwork.NewFakeClock())

	if got := p.Register("ABC", "u1", "c1", DisplayData{}); got != PresenceJoined {
		t.Fatalf("first register = %v, want joined", got)
	}
	if got := p.Register("ABC", "u1", "c2", DisplayData{}); got != PresenceUnchanged {
		t.Fatalf("second register = %v, want unchanged", got)
	}
	if got := p.Deregister("ABC", "u1", "c1"); got != PresenceUnchanged {
		t.Fatalf("first deregister = %v, want unchanged (still present)", got)
	}
	if !p.IsPresent("ABC", "u1") {
		t.Fatal("u1 should still be present with one open connection")
	}
	if got := p.Deregister("ABC", "u1", "c2"); got != PresenceLeft {
		t.Fatalf("second deregister = %v, want left", got)
	}
	if p.IsPresent("ABC", "u1") {
		t.Fatal("u1 should be gone")
	}
	if p.Rooms() != 0 {
		t.Fatalf("empty room should be dropped, have %d rooms", p.Rooms())
	}
}

func TestPresence_DeregisterUnknown(t *testing.T) {
	p := NewPresence(nil)
	p.Register("ABC", "u1", "c1", DisplayData{})

	tests := []struct {
		name   string
		token  string
		userID string
		connID string
	}{
		{name: "unknown room", token: "XYZ", userID: "u1", connID: "c1"},
		{name: "unknown user", token: "ABC", userID: "u2", connID: "c1"},
		{name: "unknown connection", token: "ABC", userID: "u1", connID: "c9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Deregister(tt.token, tt.userID, tt.connID); got != PresenceUnchanged {
				t.Fatalf("Deregister = %v, want unchanged", got)
			}
		})
	}
	if !p.IsPresent("ABC", "u1") {
		t.Fatal("u1 must not be affected by unrelated deregistrations")
	}
}

func TestPresence_ReRegisterSameConnection(t *testing.T) {
	p := NewPresence(nil)
	p.Register("ABC", "u1", "c1", DisplayData{})
	if got := p.Register("ABC", "u1", "c1", DisplayData{}); got != PresenceUnchanged {
		t.Fatalf("re-register = %v, want unchanged", got)
	}
	if got := p.Deregister("ABC", "u1", "c1"); got != PresenceLeft {
		t.Fatalf("a connection id counts once, got %v", got)
	}
}

func TestPresence_ListAndEntries(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	p := NewPresence(clock)

	p.Register("ABC", "u2", "c3", DisplayData{Name: "Bia"})
	clock.Advance(time.Minute)
	p.Register("ABC", "u1", "c2", DisplayData{Name: "Ana", Email: "ana@example.com"})
	p.Register("ABC", "u1", "c1", DisplayData{})
	p.Register("XYZ", "u3", "c4", DisplayData{})

	if diff := cmp.Diff([]string{"u1", "u2"}, p.ListPresent("ABC")); diff != "" {
		t.Fatalf("ListPresent mismatch (-want +got):\n%s", diff)
	}

	want := []PresenceEntry{
		{
			UserID:        "u1",
			ConnectionIDs: []string{"c1", "c2"},
			Display:       DisplayData{Name: "Ana", Email: "ana@example.com"},
			Since:         time.Date(2024, 3, 1, 10, 1, 0, 0, time.UTC),
		},
		{
			UserID:        "u2",
			ConnectionIDs: []string{"c3"},
			Display:       DisplayData{Name: "Bia"},
			Since:         time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		},
	}
	if diff := cmp.Diff(want, p.Entries("ABC")); diff != "" {
		t.Fatalf("Entries mismatch (-want +got):\n%s", diff)
	}
	if got := p.ListPresent("NOPE"); len(got) != 0 {
		t.Fatalf("unknown room should list nobody, got %v", got)
	}
}

func TestPresence_Purge(t *testing.T) {
	p := NewPresence(nil)
	p.Register("ABC", "u1", "c1", DisplayData{})
	p.Register("ABC", "u2", "c2", DisplayData{})

	p.Purge("ABC")

	if got := p.ListPresent("ABC"); len(got) != 0 {
		t.Fatalf("purged room still lists %v", got)
	}
	if got := p.Deregister("ABC", "u1", "c1"); got != PresenceUnchanged {
		t.Fatalf("deregister after purge = %v, want unchanged", got)
	}
	if got := p.Register("ABC", "u1", "c5", DisplayData{}); got != PresenceJoined {
		t.Fatalf("register after purge = %v, want joined", got)
	}
}

func TestPresence_ConcurrentTransitionsBalance(t *testing.T) {
	p := NewPresence(nil)
	const users, conns = 20, 5

	var mu sync.Mutex
	joined, left := map[string]int{}, map[string]int{}

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		for c := 0; c < conns; c++ {
			wg.Add(1)
			go func(userID, connID string) {
				defer wg.Done()
				if p.Register("ABC", userID, connID, DisplayData{}) == PresenceJoined {
					mu.Lock()
					joined[userID]++
					mu.Unlock()
				}
			}(fmt.Sprintf("u%d", u), fmt.Sprintf("u%d-c%d", u, c))
		}
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		for c := 0; c < conns; c++ {
			wg.Add(1)
			go func(userID, connID string) {
				defer wg.Done()
				if p.Deregister("ABC", userID, connID) == PresenceLeft {
					mu.Lock()
					left[userID]++
					mu.Unlock()
				}
			}(fmt.Sprintf("u%d", u), fmt.Sprintf("u%d-c%d", u, c))
		}
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		id := fmt.Sprintf("u%d", u)
		if joined[id] != 1 || left[id] != 1 {
			t.Fatalf("%s: joined %d times, left %d times; want exactly once each", id, joined[id], left[id])
		}
	}
	if p.Rooms() != 0 {
		t.Fatalf("room should be gone, have %d rooms", p.Rooms())
	}
}
