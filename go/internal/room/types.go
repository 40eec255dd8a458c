package room

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcdev12/planning-poker/go/internal/models"
)

// SessionRepository is the durable store of sessions and their votes.
// Every method returning a session returns the record as it is after the write.
type SessionRepository interface {
	CreateSession(ctx context.Context, session NewSession) (*models.Session, error)
	GetSession(ctx context.Context, token string) (*models.Session, error)
	AddParticipant(ctx context.Context, token, userID string) (*models.Session, error)
	// UpsertVote replaces the vote of userID or appends it, in one atomic step.
	// It fails with ErrSessionClosed on a closed session and leaves the votes untouched.
	UpsertVote(ctx context.Context, token, userID string, value *string) (*models.Session, error)
	ResetVotes(ctx context.Context, token string) (*models.Session, error)
	RemoveParticipant(ctx context.Context, token, userID string) (*models.Session, error)
	SetRevealed(ctx context.Context, token string, revealed bool) (*models.Session, error)
	CloseSession(ctx context.Context, token string) (*models.Session, error)
	ReopenSession(ctx context.Context, token string) (*models.Session, error)
	SetGameType(ctx context.Context, token string, gameType models.GameType) (*models.Session, error)
	SetSelectedWorkItem(ctx context.Context, token string, workItemID *uuid.UUID) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	// ExistingTokens returns the subset of tokens that name a stored session.
	ExistingTokens(ctx context.Context, tokens []string) ([]string, error)
}

// AccountLookup resolves user ids to display identities
type AccountLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// WorkItemFinder looks up a work item inside a session
type WorkItemFinder interface {
	FindInSession(ctx context.Context, sessionToken string, id uuid.UUID) (*models.WorkItem, error)
}

// RoomRegistry is the transport view of rooms: every room token with its
// current member count, explicit rooms and per-connection rooms alike.
type RoomRegistry interface {
	RoomMembers() map[string]int
	// ReapIfEmpty runs reap while nobody can join token, unless the room has
	// gained a member since RoomMembers was read. It reports whether reap ran
	// and forgets the room when it did.
	ReapIfEmpty(ctx context.Context, token string, reap func(ctx context.Context) error) (bool, error)
	Forget(token string)
}

// NewSession carries the fields of a session about to be created
type NewSession struct {
	Token    string
	Title    string
	OwnerID  string
	GameType models.GameType
}

// CreateSessionRequest represents the data needed to open a new room
type CreateSessionRequest struct {
	Title    string          `json:"title"`
	GameType models.GameType `json:"gameType"`
	OwnerID  string          `json:"-"`
}

// RoundResult is the outcome of a vote coordinator operation: the session
// after the write and the roster projected from it.
type RoundResult struct {
	Session *models.Session
	Players []models.PlayerView
}

type CreateSessionResponse struct {
	Session *models.Session `json:"session"`
}

type GetSessionRequest struct {
	Token string `json:"token"`
}

type GetSessionResponse struct {
	Exists  bool                `json:"exists"`
	Session *models.Session     `json:"session,omitempty"`
	Players []models.PlayerView `json:"players,omitempty"`
}

type SessionTokenRequest struct {
	Token string `json:"token"`
}

type SessionResponse struct {
	Session *models.Session `json:"session"`
}

type ListPresenceRequest struct {
	Token string `json:"token"`
}

type ListPresenceResponse struct {
	Entries []PresenceEntry `json:"entries"`
}
