package testfixtures

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/users"
)

// AccountDirectory is an in-memory account lookup
type AccountDirectory struct {
	mu     sync.Mutex
	users  map[string]models.User
	errors map[string]error
	calls  int
}

// NewAccountDirectory creates a directory holding the given users
func NewAccountDirectory(accounts ...models.User) *AccountDirectory {
	d := &AccountDirectory{
		users:  make(map[string]models.User),
		errors: make(map[string]error),
	}
	for _, u := range accounts {
		d.users[u.ID] = u
	}
	return d
}

// Add stores or replaces an account
func (d *AccountDirectory) Add(u models.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

// Fail makes lookups of id return err
func (d *AccountDirectory) Fail(id string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors[id] = err
}

// Calls returns how many lookups were made
func (d *AccountDirectory) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *AccountDirectory) GetUser(_ context.Context, id string) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if err := d.errors[id]; err != nil {
		return nil, err
	}
	u, ok := d.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, users.ErrUserNotFound)
	}
	return &u, nil
}
