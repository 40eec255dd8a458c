package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/room"
	"github.com/mcdev12/planning-poker/go/internal/testfixtures"
	"github.com/mcdev12/planning-poker/go/internal/workitem"
)

type delivery struct {
	to    string
	event string
	args  []any
}

// fakeHub records what the router sends. Connection targets are prefixed with "conn:".
type fakeHub struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (h *fakeHub) Join(conn *Connection, token string)  { conn.addRoom(token) }
func (h *fakeHub) Leave(conn *Connection, token string) { conn.removeRoom(token) }

func (h *fakeHub) BroadcastToRoom(token, event string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliveries = append(h.deliveries, delivery{to: token, event: event, args: args})
}

func (h *fakeHub) SendToConnection(conn *Connection, event string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliveries = append(h.deliveries, delivery{to: "conn:" + conn.ID, event: event, args: args})
}

func (h *fakeHub) take() []delivery {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.deliveries
	h.deliveries = nil
	return out
}

func routes(ds []delivery) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.to+" "+d.event)
	}
	return out
}

type routerFixture struct {
	router    *Router
	hub       *fakeHub
	sessions  *testfixtures.SessionStore
	presence  *room.Presence
	workItems *testfixtures.WorkItemStore
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	sessions := testfixtures.NewSessionStore()
	sessions.Seed(models.Session{Token: "ABC", Title: "Sprint 42", OwnerID: "u1"})
	sessions.Seed(models.Session{Token: "DONE", Title: "Sprint 41", OwnerID: "u1", Closed: true,
		Votes: []models.Vote{{UserID: "u1", Value: testfixtures.StringPtr("8")}}})
	accounts := testfixtures.NewAccountDirectory(
		models.User{ID: "u1", Name: "Ana", Email: "ana@example.com"},
		models.User{ID: "u2", Name: "Bruno", Email: "bruno@example.com"},
	)
	workItems := testfixtures.NewWorkItemStore("ABC", "DONE")
	items := workitem.NewApp(workItems)
	coordinator := room.NewCoordinator(sessions, items, room.NewProjector(accounts, "en", 4))
	presence := room.NewPresence(clockwork.NewFakeClock())
	hub := &fakeHub{}

	return &routerFixture{
		router:    NewRouter(coordinator, presence, items, hub, time.Second),
		hub:       hub,
		sessions:  sessions,
		presence:  presence,
		workItems: workItems,
	}
}

func testConnection(id, userID string) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ID:     id,
		UserID: userID,
		ctx:    ctx,
		cancel: cancel,
		rooms:  make(map[string]struct{}),
	}
}

func (f *routerFixture) send(t *testing.T, conn *Connection, event string, args ...any) []delivery {
	t.Helper()
	data, err := EncodeFrame(event, args...)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	f.router.HandleFrame(conn, data)
	return f.hub.take()
}

func errorCodeOf(t *testing.T, ds []delivery) string {
	t.Helper()
	if len(ds) != 1 || ds[0].event != EventError {
		t.Fatalf("expected a single error delivery, got %v", routes(ds))
	}
	payload, ok := ds[0].args[0].(ErrorPayload)
	if !ok {
		t.Fatalf("error payload has type %T", ds[0].args[0])
	}
	return payload.Code
}

func TestRouter_JoinBroadcastsOnlyOnFirstConnection(t *testing.T) {
	f := newRouterFixture(t)
	tab1 := testConnection("c1", "u1")
	tab2 := testConnection("c2", "u1")

	got := routes(f.send(t, tab1, EventJoin, JoinPayload{RoomToken: "ABC", UserID: "u1"}))
	want := []string{"ABC room/players", "ABC room/info"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("first join deliveries (-want +got):\n%s", diff)
	}

	got = routes(f.send(t, tab2, EventJoin, JoinPayload{RoomToken: "ABC"}))
	want = []string{"conn:c2 room/players", "conn:c2 room/info"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("second tab deliveries (-want +got):\n%s", diff)
	}

	if present := f.presence.ListPresent("ABC"); !cmp.Equal(present, []string{"u1"}) {
		t.Fatalf("present = %v, want [u1]", present)
	}
	if n := len(f.sessions.Snapshot("ABC").Votes); n != 1 {
		t.Fatalf("votes = %d, want 1", n)
	}
}

func TestRouter_JoinErrors(t *testing.T) {
	tests := []struct {
		name     string
		payload  JoinPayload
		wantCode string
	}{
		{name: "unknown session", payload: JoinPayload{RoomToken: "NOPE", UserID: "u1"}, wantCode: CodeSessionNotFound},
		{name: "someone else's id", payload: JoinPayload{RoomToken: "ABC", UserID: "u2"}, wantCode: CodeIdentityMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			conn := testConnection("c1", "u1")

			ds := f.send(t, conn, EventJoin, tt.payload)
			if code := errorCodeOf(t, ds); code != tt.wantCode {
				t.Fatalf("code = %s, want %s", code, tt.wantCode)
			}
			if ds[0].to != "conn:c1" {
				t.Fatalf("error sent to %s, want the originating connection", ds[0].to)
			}
			if conn.InRoom(tt.payload.RoomToken) {
				t.Fatal("connection must not join the room")
			}
		})
	}
}

func TestRouter_Vote(t *testing.T) {
	f := newRouterFixture(t)
	conn := testConnection("c1", "u1")

	ds := f.send(t, conn, EventVote, map[string]any{"roomToken": "ABC", "vote": "5"})
	if code := errorCodeOf(t, ds); code != CodeNotInRoom {
		t.Fatalf("vote before join: code = %s, want %s", code, CodeNotInRoom)
	}

	f.send(t, conn, EventJoin, JoinPayload{RoomToken: "ABC", UserID: "u1"})
	ds = f.send(t, conn, EventVote, map[string]any{"roomToken": "ABC", "vote": 5})
	if diff := cmp.Diff([]string{"ABC room/players", "ABC room/player/voted"}, routes(ds)); diff != "" {
		t.Fatalf("vote deliveries (-want +got):\n%s", diff)
	}

	players := ds[0].args[0].([]models.PlayerView)
	wantPlayers := []models.PlayerView{{UserID: "u1", Name: "Ana", Email: "ana@example.com", Vote: testfixtures.StringPtr("5")}}
	if diff := cmp.Diff(wantPlayers, players); diff != "" {
		t.Fatalf("players (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(testfixtures.StringPtr("5"), ds[1].args[0].(*string)); diff != "" {
		t.Fatalf("room/player/voted value (-want +got):\n%s", diff)
	}
}

func TestRouter_VoteWithoutValueIsRejected(t *testing.T) {
	f := newRouterFixture(t)
	conn := testConnection("c1", "u1")
	f.send(t, conn, EventJoin, JoinPayload{RoomToken: "ABC", UserID: "u1"})
	f.send(t, conn, EventVote, map[string]any{"roomToken": "ABC", "vote": "8"})

	ds := f.send(t, conn, EventVote, map[string]any{"roomToken": "ABC"})
	if code := errorCodeOf(t, ds); code != CodeBadRequest {
		t.Fatalf("code = %s, want %s", code, CodeBadRequest)
	}
	want := []models.Vote{{UserID: "u1", Value: testfixtures.StringPtr("8")}}
	if diff := cmp.Diff(want, f.sessions.Snapshot("ABC").Votes); diff != "" {
		t.Fatalf("a frame without a vote must not touch the stored vote (-want +got):\n%s", diff)
	}

	ds = f.send(t, conn, EventVote, map[string]any{"roomToken": "ABC", "vote": nil})
	if diff := cmp.Diff([]string{"ABC room/players", "ABC room/player/voted"}, routes(ds)); diff != "" {
		t.Fatalf("explicit null vote deliveries (-want +got):\n%s", diff)
	}
	if voted := ds[1].args[0].(*string); voted != nil {
		t.Fatalf("withdrawn vote broadcast %q, want null", *voted)
	}
}

func TestRouter_VoteOnClosedSessionIsRejected(t *testing.T) {
	f := newRouterFixture(t)
	conn := testConnection("c1", "u1")
	f.send(t, conn, EventJoin, JoinPayload{RoomToken: "DONE", UserID: "u1"})

	ds := f.send(t, conn, EventVote, map[string]any{"roomToken": "DONE", "vote": "13"})
	if code := errorCodeOf(t, ds); code != CodeSessionClosed {
		t.Fatalf("code = %s, want %s", code, CodeSessionClosed)
	}
	want := []models.Vote{{UserID: "u1", Value: testfixtures.StringPtr("8")}}
	if diff := cmp.Diff(want, f.sessions.Snapshot("DONE").Votes); diff != "" {
		t.Fatalf("votes changed (-want +got):\n%s", diff)
	}
}

func TestRouter_RevealAndGameType(t *testing.T) {
	f := newRouterFixture(t)
	conn := testConnection("c1", "u1")
	f.send(t, conn, EventJoin, JoinPayload{RoomToken: "ABC", UserID: "u1"})

	ds := f.send(t, conn, EventReveal, "ABC", true)
	if diff := cmp.Diff([]string{"ABC room/revealed", "ABC room/info"}, routes(ds)); diff != "" {
		t.Fatalf("reveal deliveries (-want +got):\n%s", diff)
	}
	if revealed := ds[0].args[0].(bool); !revealed {
		t.Fatal("room/revealed must carry true")
	}

	if ds := f.send(t, conn, EventGameTypeUpdate, "ABC", "tshirt"); len(ds) != 0 {
		t.Fatalf("unsupported game type must be ignored silently, got %v", routes(ds))
	}
	if gt := f.sessions.Snapshot("ABC").GameType; gt != models.GameTypeFibonacci {
		t.Fatalf("game type = %s, want fibonacci", gt)
	}

	ds = f.send(t, conn, EventGameTypeUpdate, "ABC", "decimal")
	if diff := cmp.Diff([]string{"ABC room/info"}, routes(ds)); diff != "" {
		t.Fatalf("game type deliveries (-want +got):\n%s", diff)
	}
	if session := ds[0].args[0].(*models.Session); session.GameType != models.GameTypeDecimal {
		t.Fatalf("broadcast game type = %s, want decimal", session.GameType)
	}
}

func TestRouter_ResetAndWorkItems(t *testing.T) {
	f := newRouterFixture(t)
	itemID := uuid.New()
	f.workItems.Seed(models.WorkItem{ID: itemID, SessionToken: "ABC", Code: "PP-1", Name: "Login"})
	conn := testConnection("c1", "u1")
	f.send(t, conn, EventJoin, JoinPayload{RoomToken: "ABC", UserID: "u1"})
	f.send(t, conn, EventVote, map[string]any{"roomToken": "ABC", "vote": "3"})

	ds := f.send(t, conn, EventWorkItemSelect, WorkItemPayload{RoomToken: "ABC", WorkItemID: itemID})
	if diff := cmp.Diff([]string{"ABC room/info"}, routes(ds)); diff != "" {
		t.Fatalf("select deliveries (-want +got):\n%s", diff)
	}

	ds = f.send(t, conn, EventWorkItemSelect, WorkItemPayload{RoomToken: "ABC", WorkItemID: uuid.New()})
	if code := errorCodeOf(t, ds); code != CodeWorkItemNotFound {
		t.Fatalf("code = %s, want %s", code, CodeWorkItemNotFound)
	}

	ds = f.send(t, conn, EventWorkItemScore, map[string]any{"roomToken": "ABC", "workItemId": itemID, "score": 3})
	if diff := cmp.Diff([]string{"ABC room/work-item/updated"}, routes(ds)); diff != "" {
		t.Fatalf("score deliveries (-want +got):\n%s", diff)
	}
	if item := ds[0].args[0].(*models.WorkItem); item.Score == nil || *item.Score != 3 {
		t.Fatalf("score = %v, want 3", item.Score)
	}

	f.send(t, conn, EventWorkItemDeselect, "ABC")
	ds = f.send(t, conn, EventRoundReset, "ABC")
	if diff := cmp.Diff([]string{"ABC room/players", "ABC room/info"}, routes(ds)); diff != "" {
		t.Fatalf("reset deliveries (-want +got):\n%s", diff)
	}

	session := f.sessions.Snapshot("ABC")
	if session.SelectedWorkItem != nil {
		t.Fatalf("selected work item = %v, want nil", session.SelectedWorkItem)
	}
	if diff := cmp.Diff([]models.Vote{{UserID: "u1"}}, session.Votes); diff != "" {
		t.Fatalf("votes after reset (-want +got):\n%s", diff)
	}
}

func TestRouter_LastConnectionLeavingRemovesParticipant(t *testing.T) {
	f := newRouterFixture(t)
	tab1 := testConnection("c1", "u1")
	tab2 := testConnection("c2", "u1")
	other := testConnection("c3", "u2")
	for _, conn := range []*Connection{tab1, tab2, other} {
		f.send(t, conn, EventJoin, JoinPayload{RoomToken: "ABC"})
	}

	f.router.HandleDisconnect(tab1)
	if ds := f.hub.take(); len(ds) != 0 {
		t.Fatalf("closing one of two tabs must not broadcast, got %v", routes(ds))
	}
	if _, ok := f.sessions.Snapshot("ABC").FindVote("u1"); !ok {
		t.Fatal("u1 must still be a participant")
	}

	ds := f.send(t, tab2, EventLeave, JoinPayload{RoomToken: "ABC", UserID: "u1"})
	if diff := cmp.Diff([]string{"ABC room/players"}, routes(ds)); diff != "" {
		t.Fatalf("leave deliveries (-want +got):\n%s", diff)
	}
	players := ds[0].args[0].([]models.PlayerView)
	if len(players) != 1 || players[0].UserID != "u2" {
		t.Fatalf("players = %+v, want only u2", players)
	}
	if _, ok := f.sessions.Snapshot("ABC").FindVote("u1"); ok {
		t.Fatal("u1 must no longer be a participant")
	}
	if tab2.InRoom("ABC") {
		t.Fatal("leaving connection must drop the room")
	}

	// leaving again is a no-op
	if ds := f.send(t, tab2, EventLeave, JoinPayload{RoomToken: "ABC"}); len(ds) != 0 {
		t.Fatalf("second leave deliveries = %v", routes(ds))
	}
}

func TestRouter_BadFrames(t *testing.T) {
	f := newRouterFixture(t)
	conn := testConnection("c1", "u1")

	f.router.HandleFrame(conn, []byte(`{"event":"room/join"}`))
	if code := errorCodeOf(t, f.hub.take()); code != CodeBadRequest {
		t.Fatalf("malformed frame code = %s", code)
	}

	if code := errorCodeOf(t, f.send(t, conn, "room/teleport", "ABC")); code != CodeUnknownEvent {
		t.Fatalf("unknown event code = %s", code)
	}

	if code := errorCodeOf(t, f.send(t, conn, EventReveal, "ABC")); code != CodeBadRequest {
		t.Fatalf("missing argument code = %s", code)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("submit vote: %w", room.ErrSessionNotFound), CodeSessionNotFound},
		{fmt.Errorf("submit vote: %w", room.ErrSessionClosed), CodeSessionClosed},
		{fmt.Errorf("select: %w", room.ErrWorkItemNotFound), CodeWorkItemNotFound},
		{workitem.ErrSessionNotFound, CodeSessionNotFound},
		{room.ErrNotSessionOwner, CodeNotSessionOwner},
		{room.ErrInvalidGameType, CodeBadRequest},
		{workitem.ErrInvalidWorkItem, CodeBadRequest},
		{errNotInRoom, CodeNotInRoom},
		{errors.New("connection reset"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.err.Error(), func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Fatalf("errorCode(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
