package users

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/rpc"
)

// ServiceName is the connect service name of the account API
const ServiceName = "UserService"

// UsersApp defines what the service layer needs from the users application
type UsersApp interface {
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Service implements the UserService connect interface
type Service struct {
	app UsersApp
}

// NewService creates a new users service
func NewService(app UsersApp) *Service {
	return &Service{
		app: app,
	}
}

// NewHandler mounts every procedure of the service under one path prefix
func NewHandler(s *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpc.HandlerOptions(opts...)
	mux := http.NewServeMux()
	mux.Handle(rpc.Procedure(ServiceName, "RegisterUser"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "RegisterUser"), s.RegisterUser, opts...))
	mux.Handle(rpc.Procedure(ServiceName, "GetUser"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "GetUser"), s.GetUser, opts...))
	mux.Handle(rpc.Procedure(ServiceName, "DeleteUser"),
		connect.NewUnaryHandler(rpc.Procedure(ServiceName, "DeleteUser"), s.DeleteUser, opts...))
	return rpc.ServicePrefix + ServiceName + "/", mux
}

// RegisterUser creates or refreshes an account
func (s *Service) RegisterUser(ctx context.Context, req *connect.Request[RegisterUserRequest]) (*connect.Response[RegisterUserResponse], error) {
	user, err := s.app.RegisterUser(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&RegisterUserResponse{User: user}), nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, req *connect.Request[GetUserRequest]) (*connect.Response[GetUserResponse], error) {
	user, err := s.app.GetUser(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetUserResponse{User: user}), nil
}

// DeleteUser deletes a user by ID
func (s *Service) DeleteUser(ctx context.Context, req *connect.Request[DeleteUserRequest]) (*connect.Response[DeleteUserResponse], error) {
	if err := s.app.DeleteUser(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&DeleteUserResponse{}), nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrInvalidUser):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
