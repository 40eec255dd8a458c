package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/room"
	"github.com/mcdev12/planning-poker/go/internal/workitem"
	"github.com/rs/zerolog/log"
)

// EventDisconnect may also be sent by a client that wants the server to hang up
const EventDisconnect = "disconnect"

const defaultOpTimeout = 10 * time.Second

var (
	errNotInRoom        = errors.New("connection has not joined this room")
	errIdentityMismatch = errors.New("user id does not match the connection")
	errUnknownEvent     = errors.New("unknown event")
)

// Rounds is the part of the coordinator driven by client events
type Rounds interface {
	JoinRound(ctx context.Context, token, userID string) (*room.RoundResult, error)
	SubmitVote(ctx context.Context, token, userID string, value *string) (*room.RoundResult, error)
	ResetRound(ctx context.Context, token string) (*room.RoundResult, error)
	SetRevealed(ctx context.Context, token string, revealed bool) (*models.Session, error)
	RemoveParticipant(ctx context.Context, token, userID string) (*room.RoundResult, error)
	UpdateGameType(ctx context.Context, token string, gameType models.GameType) (*models.Session, error)
	SelectWorkItem(ctx context.Context, token string, workItemID uuid.UUID) (*models.Session, error)
	DeselectWorkItem(ctx context.Context, token string) (*models.Session, error)
}

// PresenceTracker follows which connections of a user are in a room
type PresenceTracker interface {
	Register(token, userID, connectionID string, display room.DisplayData) room.Transition
	Deregister(token, userID, connectionID string) room.Transition
}

// ScoreUpdater records work item estimates
type ScoreUpdater interface {
	UpdateScore(ctx context.Context, req workitem.UpdateScoreRequest) (*models.WorkItem, error)
}

type roomHub interface {
	Join(conn *Connection, token string)
	Leave(conn *Connection, token string)
	BroadcastToRoom(token, event string, args ...any)
	SendToConnection(conn *Connection, event string, args ...any)
}

// Router turns client frames into coordinator calls and broadcasts the
// resulting state. Events of one room are handled one at a time.
type Router struct {
	rounds    Rounds
	presence  PresenceTracker
	scores    ScoreUpdater
	hub       roomHub
	locks     *roomLocks
	opTimeout time.Duration
}

// NewRouter creates a new Router
func NewRouter(rounds Rounds, presence PresenceTracker, scores ScoreUpdater, hub roomHub, opTimeout time.Duration) *Router {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &Router{
		rounds:    rounds,
		presence:  presence,
		scores:    scores,
		hub:       hub,
		locks:     newRoomLocks(),
		opTimeout: opTimeout,
	}
}

// HandleFrame dispatches one client frame. Failures are reported to the
// sending connection only.
func (r *Router) HandleFrame(conn *Connection, data []byte) {
	frame, err := DecodeFrame(data)
	if err != nil {
		r.fail(conn, "", "", err)
		return
	}

	// writes outlive the socket that asked for them
	ctx, cancel := context.WithTimeout(context.WithoutCancel(conn.Context()), r.opTimeout)
	defer cancel()

	var token string
	switch frame.Event {
	case EventJoin:
		token, err = r.join(ctx, conn, frame)
	case EventLeave:
		token, err = r.leave(ctx, conn, frame)
	case EventVote:
		token, err = r.vote(ctx, conn, frame)
	case EventReveal:
		token, err = r.reveal(ctx, conn, frame)
	case EventGameTypeUpdate:
		token, err = r.updateGameType(ctx, conn, frame)
	case EventRoundReset:
		token, err = r.resetRound(ctx, conn, frame)
	case EventWorkItemSelect:
		token, err = r.selectWorkItem(ctx, conn, frame)
	case EventWorkItemDeselect:
		token, err = r.deselectWorkItem(ctx, conn, frame)
	case EventWorkItemScore:
		token, err = r.updateScore(ctx, conn, frame)
	case EventDisconnect:
		conn.Close()
	default:
		err = fmt.Errorf("%w: %s", errUnknownEvent, frame.Event)
	}
	if err != nil {
		r.fail(conn, frame.Event, token, err)
	}
}

// HandleDisconnect removes the connection from the presence of every room it
// had joined. The user leaves the round only with their last connection.
func (r *Router) HandleDisconnect(conn *Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	for _, token := range conn.Rooms() {
		if err := r.depart(ctx, conn, token); err != nil {
			log.Error().
				Err(err).
				Str("room_token", token).
				Str("user_id", conn.UserID).
				Str("connection_id", conn.ID).
				Msg("failed to remove participant after disconnect")
		}
	}
}

func (r *Router) join(ctx context.Context, conn *Connection, f Frame) (string, error) {
	var p JoinPayload
	if err := f.Arg(0, &p); err != nil {
		return "", err
	}
	if err := r.checkIdentity(conn, p.UserID); err != nil {
		return p.RoomToken, err
	}
	defer r.locks.Lock(p.RoomToken)()

	res, err := r.rounds.JoinRound(ctx, p.RoomToken, conn.UserID)
	if err != nil {
		return p.RoomToken, err
	}
	r.hub.Join(conn, p.RoomToken)

	if r.presence.Register(p.RoomToken, conn.UserID, conn.ID, conn.Display) == room.PresenceJoined {
		log.Info().
			Str("room_token", p.RoomToken).
			Str("user_id", conn.UserID).
			Msg("user joined room")
		r.hub.BroadcastToRoom(p.RoomToken, EventPlayers, res.Players)
		r.hub.BroadcastToRoom(p.RoomToken, EventInfo, res.Session)
		return p.RoomToken, nil
	}

	// another tab of a present user only needs the current state
	r.hub.SendToConnection(conn, EventPlayers, res.Players)
	r.hub.SendToConnection(conn, EventInfo, res.Session)
	return p.RoomToken, nil
}

func (r *Router) leave(ctx context.Context, conn *Connection, f Frame) (string, error) {
	var p JoinPayload
	if err := f.Arg(0, &p); err != nil {
		return "", err
	}
	if err := r.checkIdentity(conn, p.UserID); err != nil {
		return p.RoomToken, err
	}
	if !conn.InRoom(p.RoomToken) {
		return p.RoomToken, nil
	}
	r.hub.Leave(conn, p.RoomToken)
	return p.RoomToken, r.depart(ctx, conn, p.RoomToken)
}

func (r *Router) depart(ctx context.Context, conn *Connection, token string) error {
	defer r.locks.Lock(token)()

	if r.presence.Deregister(token, conn.UserID, conn.ID) != room.PresenceLeft {
		return nil
	}
	log.Info().
		Str("room_token", token).
		Str("user_id", conn.UserID).
		Msg("user left room")

	res, err := r.rounds.RemoveParticipant(ctx, token, conn.UserID)
	if err != nil {
		return err
	}
	r.hub.BroadcastToRoom(token, EventPlayers, res.Players)
	return nil
}

func (r *Router) vote(ctx context.Context, conn *Connection, f Frame) (string, error) {
	var p VotePayload
	if err := f.Arg(0, &p); err != nil {
		return "", err
	}
	if !p.Vote.Set {
		return p.RoomToken, fmt.Errorf("%w: %s requires a vote", errMalformedFrame, f.Event)
	}
	if err := r.checkMember(conn, p.RoomToken); err != nil {
		return p.RoomToken, err
	}
	defer r.locks.Lock(p.RoomToken)()

	res, err := r.rounds.SubmitVote(ctx, p.RoomToken, conn.UserID, p.Vote.Value)
	if err != nil {
		return p.RoomToken, err
	}
	r.hub.BroadcastToRoom(p.RoomToken, EventPlayers, res.Players)
	r.hub.BroadcastToRoom(p.RoomToken, EventPlayerVoted, p.Vote.Value)
	return p.RoomToken, nil
}

func (r *Router) reveal(ctx context.Context, conn *Connection, f Frame) (string, error) {
	var token string
	var revealed bool
	if err := f.Arg(0, &token); err != nil {
		return "", err
	}
	if err := f.Arg(1, &revealed); err != nil {
		return token, err
	}
	if err := r.checkMember(conn, token); err != nil {
		return token, err
	}
	defer r.locks.Lock(token)()

	session, err := r.rounds.SetRevealed(ctx, token, revealed)
	if err != nil {
		return token, err
	}
	r.hub.BroadcastToRoom(token, EventRevealed, session.ResultRevealed)
	r.hub.BroadcastToRoom(token, EventInfo, session)
	return token, nil
}

func (r *Router) updateGameType(ctx context.Context, conn *Connection, f Frame) (string, error) {
	var token string
	var gameType models.GameType
	if err := f.Arg(0, &token); err != nil {
		return "", err
	}
	if err := f.Arg(1, &gameType); err != nil {
		return token, err
	}
	if !gameType.Valid() {
		log.Debug().
			Str("room_token", token).
			Str("game_type", string(gameType)).
			Msg("ignoring unsupported game type")
		return token, nil
	}
	if err := r.checkMember(conn, token); err != nil {
		return token, err
	}
	defer r.locks.Lock(token)()

	session, err := r.rounds.UpdateGameType(ctx, token, gameType)
	if err != nil {
		return token, err
	}
	r.hub.BroadcastToRoom(token, EventInfo, session)
	return token, nil
}

func (r *Router) resetRound(ctx context.Context, conn *Connection, f Frame) (string, error) {
	var token string
	if err := f.Arg(0, &token); err != nil {
		return "", err
	}
	if err := r.checkMember(conn, token); err != nil {
		return token, err
	}
	defer r.locks.Lock(token)()

	res, err := r.rounds.ResetRound(ctx, token)
	if err != nil {
		return token, err
	}
	r.hub.BroadcastToRoom(token, EventPlayers, res.Players)
	r.hub.BroadcastToRoom(token, EventInfo, res.Session)
	return token, nil
}

func (r *Router) selectWorkItem(ctx context.Context, conn *Connection, f Frame) (string, error) {
	var p WorkItemPayload
	if err := f.Arg(0, &p); err != nil {
		return "", err
	}
	if err := r.checkMember(conn, p.RoomToken); err != nil {
		return p.RoomToken, err
	}
	defer r.locks.Lock(p.RoomToken)()

	session, err := r.rounds.SelectWorkItem(ctx, p.RoomToken, p.WorkItemID)
	if err != nil {
		return p.RoomToken, err
	}
	r.hub.BroadcastToRoom(p.RoomToken, EventInfo, session)
	return p.RoomToken, nil
}

func (r *Router) deselectWorkItem(ctx context.Context, conn *Connection, f Frame) (string, error) {
	var token string
	if err := f.Arg(0, &token); err != nil {
		return "", err
	}
	if err := r.checkMember(conn, token); err != nil {
		return token, err
	}
	defer r.locks.Lock(token)()

	session, err := r.rounds.DeselectWorkItem(ctx, token)
	if err != nil {
		return token, err
	}
	r.hub.BroadcastToRoom(token, EventInfo, session)
	return token, nil
}

func (r *Router) updateScore(ctx context.Context, conn *Connection, f Frame) (string, error) {
	var p ScorePayload
	if err := f.Arg(0, &p); err != nil {
		return "", err
	}
	if err := r.checkMember(conn, p.RoomToken); err != nil {
		return p.RoomToken, err
	}
	defer r.locks.Lock(p.RoomToken)()

	item, err := r.scores.UpdateScore(ctx, workitem.UpdateScoreRequest{
		SessionToken: p.RoomToken,
		WorkItemID:   p.WorkItemID,
		Score:        p.Score,
	})
	if err != nil {
		return p.RoomToken, err
	}
	r.hub.BroadcastToRoom(p.RoomToken, EventWorkItemUpdated, item)
	return p.RoomToken, nil
}

func (r *Router) checkIdentity(conn *Connection, userID string) error {
	if userID != "" && userID != conn.UserID {
		return errIdentityMismatch
	}
	return nil
}

func (r *Router) checkMember(conn *Connection, token string) error {
	if !conn.InRoom(token) {
		return errNotInRoom
	}
	return nil
}

func (r *Router) fail(conn *Connection, event, token string, err error) {
	code := errorCode(err)
	message := err.Error()

	logEvent := log.Warn()
	if code == CodeInternal {
		logEvent = log.Error()
		message = "internal error"
	}
	logEvent.
		Err(err).
		Str("event", event).
		Str("room_token", token).
		Str("user_id", conn.UserID).
		Str("connection_id", conn.ID).
		Str("code", code).
		Msg("room event failed")

	r.hub.SendToConnection(conn, EventError, ErrorPayload{Event: event, Message: message, Code: code})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errMalformedFrame),
		errors.Is(err, room.ErrInvalidGameType),
		errors.Is(err, workitem.ErrInvalidWorkItem):
		return CodeBadRequest
	case errors.Is(err, room.ErrSessionNotFound), errors.Is(err, workitem.ErrSessionNotFound):
		return CodeSessionNotFound
	case errors.Is(err, room.ErrSessionClosed):
		return CodeSessionClosed
	case errors.Is(err, room.ErrWorkItemNotFound):
		return CodeWorkItemNotFound
	case errors.Is(err, room.ErrNotSessionOwner):
		return CodeNotSessionOwner
	case errors.Is(err, errNotInRoom):
		return CodeNotInRoom
	case errors.Is(err, errIdentityMismatch):
		return CodeIdentityMismatch
	case errors.Is(err, errUnknownEvent):
		return CodeUnknownEvent
	default:
		return CodeInternal
	}
}
