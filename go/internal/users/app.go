package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/rs/zerolog/log"
)

// UsersRepository defines what the app layer needs from the repository
type UsersRepository interface {
	UpsertUser(ctx context.Context, req RegisterUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// App handles users business logic
type App struct {
	repo UsersRepository
}

// NewApp creates a new users App
func NewApp(repo UsersRepository) *App {
	return &App{
		repo: repo,
	}
}

// RegisterUser stores the profile of an account, creating it on first sight
func (a *App) RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRegisterUserRequest(req); err != nil {
		return nil, err
	}

	// An email may only belong to one account
	existing, err := a.repo.GetUserByEmail(ctx, req.Email)
	if err == nil && existing.ID != req.ID {
		return nil, fmt.Errorf("%w: email %s is already registered", ErrInvalidUser, req.Email)
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user, err := a.repo.UpsertUser(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// GetUser retrieves a user by ID
func (a *App) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("empty id: %w", ErrUserNotFound)
	}
	return a.repo.GetUser(ctx, id)
}

// DeleteUser deletes a user by ID
func (a *App) DeleteUser(ctx context.Context, id string) error {
	if err := a.repo.DeleteUser(ctx, id); err != nil {
		return err
	}

	log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

func validateRegisterUserRequest(req RegisterUserRequest) error {
	if req.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidUser)
	}
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if req.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidUser)
	}
	at := strings.Index(req.Email, "@")
	if at <= 0 || !strings.Contains(req.Email[at:], ".") {
		return fmt.Errorf("%w: email format is invalid", ErrInvalidUser)
	}
	return nil
}
