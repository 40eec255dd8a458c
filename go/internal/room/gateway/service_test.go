package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

type peerStub struct {
	occupied bool
	err      error
	queried  []string
}

func (p *peerStub) Occupied(_ context.Context, token string) (bool, error) {
	p.queried = append(p.queried, token)
	return p.occupied, p.err
}

func newReapService(t *testing.T, peers peerOccupancy) *Service {
	t.Helper()
	s, err := NewService(DefaultConfig(), nil, nil, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	s.peers = peers
	return s
}

// emptyRoom leaves ABC registered with no member, as after a last disconnect
func emptyRoom(s *Service) {
	conn := testConnection("c1", "u1")
	s.hub.registerConnection(conn)
	s.hub.Join(conn, "ABC")
	s.hub.unregisterConnection(conn)
}

func TestService_ReapIfEmpty(t *testing.T) {
	tests := []struct {
		name       string
		localUser  bool
		peers      *peerStub
		wantReaped bool
		wantErr    bool
		wantQuery  bool
	}{
		{name: "empty on a single node", wantReaped: true},
		{name: "empty on every node", peers: &peerStub{}, wantReaped: true, wantQuery: true},
		{name: "member on this node", localUser: true, peers: &peerStub{}},
		{name: "member on another node", peers: &peerStub{occupied: true}, wantQuery: true},
		{name: "peers unreachable", peers: &peerStub{err: errors.New("nats: connection closed")}, wantErr: true, wantQuery: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var peers peerOccupancy
			if tt.peers != nil {
				peers = tt.peers
			}
			s := newReapService(t, peers)
			emptyRoom(s)
			if tt.localUser {
				conn := testConnection("c2", "u2")
				s.hub.registerConnection(conn)
				s.hub.Join(conn, "ABC")
			}

			calls := 0
			reaped, err := s.ReapIfEmpty(context.Background(), "ABC", func(context.Context) error {
				calls++
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if reaped != tt.wantReaped || (calls == 1) != tt.wantReaped {
				t.Fatalf("reaped = %v with %d reap calls, want %v", reaped, calls, tt.wantReaped)
			}
			if tt.peers != nil && (len(tt.peers.queried) == 1) != tt.wantQuery {
				t.Fatalf("peer queries = %v, want query %v", tt.peers.queried, tt.wantQuery)
			}
			if _, registered := s.RoomMembers()["ABC"]; registered == tt.wantReaped {
				t.Fatalf("room registered = %v after reaped = %v", registered, reaped)
			}
		})
	}
}

func TestService_ReapIfEmptyWaitsForJoinInProgress(t *testing.T) {
	s := newReapService(t, nil)
	emptyRoom(s)

	// a join holds the room lock between its store write and hub.Join
	unlock := s.router.locks.Lock("ABC")

	type result struct {
		reaped bool
		err    error
	}
	done := make(chan result, 1)
	go func() {
		reaped, err := s.ReapIfEmpty(context.Background(), "ABC", func(context.Context) error {
			return nil
		})
		done <- result{reaped, err}
	}()

	select {
	case <-done:
		t.Fatal("reap must wait for the room lock")
	case <-time.After(50 * time.Millisecond):
	}

	conn := testConnection("c2", "u2")
	s.hub.registerConnection(conn)
	s.hub.Join(conn, "ABC")
	unlock()

	select {
	case res := <-done:
		if res.err != nil || res.reaped {
			t.Fatalf("reaped = %v err = %v, want the joined room kept", res.reaped, res.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReapIfEmpty never returned")
	}
	if n := s.RoomMembers()["ABC"]; n != 1 {
		t.Fatalf("members = %d, want 1", n)
	}
}

func TestService_AnswersOccupancyForLocalMembers(t *testing.T) {
	s := newReapService(t, nil)
	emptyRoom(s)
	relay := newRelay(nil, s.hub, s, RelayConfig{NodeID: "node-a"})

	query := func(origin string) *nats.Msg {
		msg := nats.NewMsg("rooms.members")
		msg.Reply = "_INBOX.q"
		msg.Header.Set(HeaderOriginNode, origin)
		msg.Header.Set(HeaderRoomToken, "ABC")
		return msg
	}

	if relay.shouldAnswer(query("node-b")) {
		t.Fatal("an empty room must not be reported occupied")
	}

	conn := testConnection("c2", "u2")
	s.hub.registerConnection(conn)
	s.hub.Join(conn, "ABC")
	if !relay.shouldAnswer(query("node-b")) {
		t.Fatal("a room with a local member must be reported occupied")
	}
	if relay.shouldAnswer(query("node-a")) {
		t.Fatal("a node must not answer its own query")
	}
}
