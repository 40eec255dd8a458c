package users

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mcdev12/planning-poker/go/internal/models"
)

type usersRepoStub struct {
	users map[string]models.User
}

func newUsersRepoStub(users ...models.User) *usersRepoStub {
	s := &usersRepoStub{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *usersRepoStub) UpsertUser(_ context.Context, req RegisterUserRequest) (*models.User, error) {
	u := models.User{ID: req.ID, Name: req.Name, Email: req.Email}
	s.users[req.ID] = u
	return &u, nil
}

func (s *usersRepoStub) GetUser(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	return &u, nil
}

func (s *usersRepoStub) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, ErrUserNotFound)
}

func (s *usersRepoStub) DeleteUser(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	delete(s.users, id)
	return nil
}

func TestApp_RegisterUser(t *testing.T) {
	app := NewApp(newUsersRepoStub(models.User{ID: "u1", Name: "Ana", Email: "ana@example.com"}))
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterUserRequest
		want error
	}{
		{"new account", RegisterUserRequest{ID: "u2", Name: "Bruno", Email: "bruno@example.com"}, nil},
		{"profile refresh keeps email", RegisterUserRequest{ID: "u1", Name: "Ana Maria", Email: "ana@example.com"}, nil},
		{"email owned by another account", RegisterUserRequest{ID: "u3", Name: "Eve", Email: "ana@example.com"}, ErrInvalidUser},
		{"missing id", RegisterUserRequest{Name: "X", Email: "x@example.com"}, ErrInvalidUser},
		{"missing name", RegisterUserRequest{ID: "u4", Name: " ", Email: "x@example.com"}, ErrInvalidUser},
		{"bad email", RegisterUserRequest{ID: "u4", Name: "X", Email: "not-an-email"}, ErrInvalidUser},
		{"email without domain dot", RegisterUserRequest{ID: "u4", Name: "X", Email: "x@localhost"}, ErrInvalidUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.RegisterUser(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	u, err := app.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Name != "Ana Maria" {
		t.Fatalf("profile not refreshed, name = %q", u.Name)
	}
}

func TestApp_GetAndDeleteUser(t *testing.T) {
	app := NewApp(newUsersRepoStub(models.User{ID: "u1", Name: "Ana", Email: "ana@example.com"}))
	ctx := context.Background()

	if _, err := app.GetUser(ctx, ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("empty id: expected ErrUserNotFound, got %v", err)
	}
	if err := app.DeleteUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := app.GetUser(ctx, "u1"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("deleted user: expected ErrUserNotFound, got %v", err)
	}
	if err := app.DeleteUser(ctx, "u1"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("second delete: expected ErrUserNotFound, got %v", err)
	}
}
