package workitem

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/rpc"
)

// ServiceName is the connect service name of the work item API
const ServiceName = "WorkItemService"

// WorkItemApp defines what the service layer needs from the work item application
type WorkItemApp interface {
	CreateWorkItem(ctx context.Context, req CreateWorkItemRequest) (*models.WorkItem, error)
	ListWorkItems(ctx context.Context, sessionToken string) ([]*models.WorkItem, error)
	UpdateScore(ctx context.Context, req UpdateScoreRequest) (*models.WorkItem, error)
	DeleteWorkItem(ctx context.Context, sessionToken string, id uuid.UUID) error
}

// Notifier pushes work item changes to the room of the session
type Notifier interface {
	WorkItemUpdated(ctx context.Context, item *models.WorkItem)
}

// Service implements the WorkItemService connect interface
type Service struct {
	app      WorkItemApp
	notifier Notifier
}

// NewService creates a new work item service. notifier may be nil.
func NewService(app WorkItemApp, notifier Notifier) *Service {
	return &Service{
		app:      app,
		notifier: notifier,
	}
}

// NewHandler mounts every procedure of the service under one path prefix
func NewHandler(s *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpc.HandlerOptions(opts...)
	mux := http.NewServeMux()
	mux.Handle(rpc.Procedure(ServiceName, "CreateWorkItem"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "CreateWorkItem"), s.CreateWorkItem, opts...))
	mux.Handle(rpc.Procedure(ServiceName, "ListWorkItems"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "ListWorkItems"), s.ListWorkItems, opts...))
	mux.Handle(rpc.Procedure(ServiceName, "UpdateScore"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "UpdateScore"), s.UpdateScore, opts...))
	mux.Handle(rpc.Procedure(ServiceName, "DeleteWorkItem"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "DeleteWorkItem"), s.DeleteWorkItem, opts...))
	return rpc.ServicePrefix + ServiceName + "/", mux
}

// CreateWorkItem adds a work item to a session
func (s *Service) CreateWorkItem(ctx context.Context, req *connect.Request[CreateWorkItemRequest]) (*connect.Response[CreateWorkItemResponse], error) {
	item, err := s.app.CreateWorkItem(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CreateWorkItemResponse{WorkItem: item}), nil
}

// ListWorkItems lists the work items of a session
func (s *Service) ListWorkItems(ctx context.Context, req *connect.Request[ListWorkItemsRequest]) (*connect.Response[ListWorkItemsResponse], error) {
	items, err := s.app.ListWorkItems(ctx, req.Msg.SessionToken)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&ListWorkItemsResponse{WorkItems: items}), nil
}

// UpdateScore stores the agreed estimate and tells the room about it
func (s *Service) UpdateScore(ctx context.Context, req *connect.Request[UpdateScoreRequest]) (*connect.Response[UpdateScoreResponse], error) {
	item, err := s.app.UpdateScore(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}

	if s.notifier != nil {
		s.notifier.WorkItemUpdated(ctx, item)
	}

	return connect.NewResponse(&UpdateScoreResponse{WorkItem: item}), nil
}

// DeleteWorkItem removes a work item
func (s *Service) DeleteWorkItem(ctx context.Context, req *connect.Request[DeleteWorkItemRequest]) (*connect.Response[DeleteWorkItemResponse], error) {
	if err := s.app.DeleteWorkItem(ctx, req.Msg.SessionToken, req.Msg.WorkItemID); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&DeleteWorkItemResponse{}), nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSessionNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrInvalidWorkItem):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
