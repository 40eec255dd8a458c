// Package testfixtures provides in-memory stand-ins for the stores used by
// the room, work item and gateway packages.
package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/room"
)

// SessionStore is an in-memory room.SessionRepository. Every method runs
// under one lock, which gives it the same atomicity as the Postgres store.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	now      func() time.Time

	// DeleteErrors makes DeleteSession fail for the given tokens
	DeleteErrors map[string]error
	// Deleted lists the tokens removed by DeleteSession, in order
	Deleted []string
}

var _ room.SessionRepository = (*SessionStore)(nil)

// NewSessionStore creates an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:     make(map[string]*models.Session),
		now:          func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) },
		DeleteErrors: make(map[string]error),
	}
}

// Seed stores a copy of session as is
func (s *SessionStore) Seed(session models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.GameType == "" {
		session.GameType = models.GameTypeFibonacci
	}
	s.sessions[session.Token] = cloneSession(&session)
}

// Snapshot returns a copy of the stored session, or nil
func (s *SessionStore) Snapshot(token string) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[token]; ok {
		return cloneSession(session)
	}
	return nil
}

func (s *SessionStore) CreateSession(_ context.Context, n room.NewSession) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[n.Token]; ok {
		return nil, fmt.Errorf("token %s: %w", n.Token, room.ErrTokenTaken)
	}
	session := &models.Session{
		Token:     n.Token,
		Title:     n.Title,
		OwnerID:   n.OwnerID,
		GameType:  n.GameType,
		Votes:     []models.Vote{},
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	s.sessions[n.Token] = session
	return cloneSession(session), nil
}

func (s *SessionStore) GetSession(_ context.Context, token string) (*models.Session, error) {
	return s.update(token, func(*models.Session) error { return nil })
}

func (s *SessionStore) AddParticipant(_ context.Context, token, userID string) (*models.Session, error) {
	return s.update(token, func(session *models.Session) error {
		if _, ok := session.FindVote(userID); !ok {
			session.Votes = append(session.Votes, models.Vote{UserID: userID})
		}
		return nil
	})
}

func (s *SessionStore) UpsertVote(_ context.Context, token, userID string, value *string) (*models.Session, error) {
	return s.update(token, func(session *models.Session) error {
		if session.Closed {
			return fmt.Errorf("session %s: %w", token, room.ErrSessionClosed)
		}
		for i := range session.Votes {
			if session.Votes[i].UserID == userID {
				session.Votes[i].Value = cloneString(value)
				return nil
			}
		}
		session.Votes = append(session.Votes, models.Vote{UserID: userID, Value: cloneString(value)})
		return nil
	})
}

func (s *SessionStore) ResetVotes(_ context.Context, token string) (*models.Session, error) {
	return s.update(token, func(session *models.Session) error {
		if session.Closed {
			return fmt.Errorf("session %s: %w", token, room.ErrSessionClosed)
		}
		for i := range session.Votes {
			session.Votes[i].Value = nil
		}
		return nil
	})
}

func (s *SessionStore) RemoveParticipant(_ context.Context, token, userID string) (*models.Session, error) {
	return s.update(token, func(session *models.Session) error {
		kept := session.Votes[:0]
		for _, v := range session.Votes {
			if v.UserID != userID {
				kept = append(kept, v)
			}
		}
		session.Votes = kept
		return nil
	})
}

func (s *SessionStore) SetRevealed(_ context.Context, token string, revealed bool) (*models.Session, error) {
	return s.update(token, func(session *models.Session) error {
		session.ResultRevealed = revealed
		return nil
	})
}

func (s *SessionStore) CloseSession(_ context.Context, token string) (*models.Session, error) {
	return s.update(token, func(session *models.Session) error {
		session.Closed = true
		return nil
	})
}

func (s *SessionStore) ReopenSession(_ context.Context, token string) (*models.Session, error) {
	return s.update(token, func(session *models.Session) error {
		session.Closed = false
		session.ResultRevealed = false
		return nil
	})
}

func (s *SessionStore) SetGameType(_ context.Context, token string, gameType models.GameType) (*models.Session, error) {
	return s.update(token, func(session *models.Session) error {
		session.GameType = gameType
		return nil
	})
}

func (s *SessionStore) SetSelectedWorkItem(_ context.Context, token string, workItemID *uuid.UUID) (*models.Session, error) {
	return s.update(token, func(session *models.Session) error {
		if workItemID == nil {
			session.SelectedWorkItem = nil
			return nil
		}
		id := *workItemID
		session.SelectedWorkItem = &id
		return nil
	})
}

func (s *SessionStore) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.DeleteErrors[token]; err != nil {
		return err
	}
	if _, ok := s.sessions[token]; !ok {
		return fmt.Errorf("session %s: %w", token, room.ErrSessionNotFound)
	}
	delete(s.sessions, token)
	s.Deleted = append(s.Deleted, token)
	return nil
}

func (s *SessionStore) ExistingTokens(_ context.Context, tokens []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing []string
	for _, token := range tokens {
		if _, ok := s.sessions[token]; ok {
			existing = append(existing, token)
		}
	}
	sort.Strings(existing)
	return existing, nil
}

// update applies fn to the stored session and returns a copy of the result.
// The stored session is left unchanged when fn fails.
func (s *SessionStore) update(token string, fn func(*models.Session) error) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[token]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", token, room.ErrSessionNotFound)
	}
	working := cloneSession(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	s.sessions[token] = working
	return cloneSession(working), nil
}

func cloneSession(session *models.Session) *models.Session {
	out := *session
	out.Votes = make([]models.Vote, len(session.Votes))
	for i, v := range session.Votes {
		out.Votes[i] = models.Vote{UserID: v.UserID, Value: cloneString(v.Value)}
	}
	if session.SelectedWorkItem != nil {
		id := *session.SelectedWorkItem
		out.SelectedWorkItem = &id
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
