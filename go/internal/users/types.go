package users

import (
	"errors"

	"github.com/mcdev12/planning-poker/go/internal/models"
)

var (
	// ErrUserNotFound is returned when no account exists for an id
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUser wraps request validation failures
	ErrInvalidUser = errors.New("invalid user")
)

// RegisterUserRequest represents the profile of an account issued by the identity provider
type RegisterUserRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RegisterUserResponse struct {
	User *models.User `json:"user"`
}

type GetUserRequest struct {
	ID string `json:"id"`
}

type GetUserResponse struct {
	User *models.User `json:"user"`
}

type DeleteUserRequest struct {
	ID string `json:"id"`
}

type DeleteUserResponse struct{}
