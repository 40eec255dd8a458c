package room

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/rpc"
)

// ServiceName is the connect service name of the session API
const ServiceName = "SessionService"

// SessionNotifier pushes session changes made outside the websocket to the room
type SessionNotifier interface {
	SessionUpdated(ctx context.Context, session *models.Session)
}

// Service implements the SessionService connect interface
type Service struct {
	coordinator *Coordinator
	presence    *Presence
	notifier    SessionNotifier
}

// NewService creates a new session service. notifier may be nil.
func NewService(coordinator *Coordinator, presence *Presence, notifier SessionNotifier) *Service {
	return &Service{
		coordinator: coordinator,
		presence:    presence,
		notifier:    notifier,
	}
}

// NewHandler mounts every procedure of the service under one path prefix
func NewHandler(s *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpc.HandlerOptions(opts...)
	mux := http.NewServeMux()
	mux.Handle(rpc.Procedure(ServiceName, "CreateSession"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "CreateSession"), s.CreateSession, opts...))
	mux.Handle(rpc.Procedure(ServiceName, "GetSession"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "GetSession"), s.GetSession, opts...))
	mux.Handle(rpc.Procedure(ServiceName, "CloseSession"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "CloseSession"), s.CloseSession, opts...))
	mux.Handle(rpc.Procedure(ServiceName, "ReopenRound"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "ReopenRound"), s.ReopenRound, opts...))
	mux.Handle(rpc.Procedure(ServiceName, "ListPresence"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "ListPresence"), s.ListPresence, opts...))
	return rpc.ServicePrefix + ServiceName + "/", mux
}

// CreateSession opens a new room owned by the caller
func (s *Service) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error) {
	callerID := req.Header().Get(rpc.UserIDHeader)
	if callerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("missing caller identity"))
	}

	appReq := *req.Msg
	appReq.OwnerID = callerID
	session, err := s.coordinator.CreateSession(ctx, appReq)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CreateSessionResponse{Session: session}), nil
}

// GetSession reports whether a room exists, with its session and roster
func (s *Service) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[GetSessionResponse], error) {
	session, err := s.coordinator.GetSession(ctx, req.Msg.Token)
	if errors.Is(err, ErrSessionNotFound) {
		return connect.NewResponse(&GetSessionResponse{Exists: false}), nil
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetSessionResponse{
		Exists:  true,
		Session: session,
		Players: s.coordinator.Players(ctx, session),
	}), nil
}

// CloseSession finalizes the round of a room owned by the caller
func (s *Service) CloseSession(ctx context.Context, req *connect.Request[SessionTokenRequest]) (*connect.Response[SessionResponse], error) {
	session, err := s.coordinator.CloseSession(ctx, req.Msg.Token, req.Header().Get(rpc.UserIDHeader))
	if err != nil {
		return nil, toConnectError(err)
	}
	s.notify(ctx, session)

	return connect.NewResponse(&SessionResponse{Session: session}), nil
}

// ReopenRound opens the closed round of a room owned by the caller
func (s *Service) ReopenRound(ctx context.Context, req *connect.Request[SessionTokenRequest]) (*connect.Response[SessionResponse], error) {
	session, err := s.coordinator.ReopenRound(ctx, req.Msg.Token, req.Header().Get(rpc.UserIDHeader))
	if err != nil {
		return nil, toConnectError(err)
	}
	s.notify(ctx, session)

	return connect.NewResponse(&SessionResponse{Session: session}), nil
}

// ListPresence returns who is connected to a room on this node
func (s *Service) ListPresence(ctx context.Context, req *connect.Request[ListPresenceRequest]) (*connect.Response[ListPresenceResponse], error) {
	return connect.NewResponse(&ListPresenceResponse{Entries: s.presence.Entries(req.Msg.Token)}), nil
}

func (s *Service) notify(ctx context.Context, session *models.Session) {
	if s.notifier != nil {
		s.notifier.SessionUpdated(ctx, session)
	}
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrWorkItemNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrNotSessionOwner):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, ErrSessionClosed):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, ErrInvalidGameType), errors.Is(err, ErrInvalidSession):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
